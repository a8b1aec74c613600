package cron

import (
	"strconv"
	"strings"
)

// Field identifies one of the five time fields of a schedule.
type Field int

const (
	Minute Field = iota
	Hour
	DayOfMonth
	Month
	DayOfWeek

	numFields
)

var fieldNames = [numFields]string{
	Minute:     "minute",
	Hour:       "hour",
	DayOfMonth: "day-of-month",
	Month:      "month",
	DayOfWeek:  "day-of-week",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// Fields lists the schedule fields in line order.
func Fields() []Field {
	return []Field{Minute, Hour, DayOfMonth, Month, DayOfWeek}
}

// Domain is the inclusive value range of a field. Names, when present, maps
// symbolic tokens onto consecutive values starting at Min.
type Domain struct {
	Min, Max int
	Names    []string
}

// Size is the number of values in the domain.
func (d Domain) Size() int { return d.Max - d.Min + 1 }

// lookup maps an upper-case name onto its value. The first match wins, so
// SUN is 0 rather than 7.
func (d Domain) lookup(name string) (int, bool) {
	for i, n := range d.Names {
		if n == name {
			return d.Min + i, true
		}
	}
	return 0, false
}

var domains = map[Field]Domain{
	Minute:     {Min: 0, Max: 59},
	Hour:       {Min: 0, Max: 23},
	DayOfMonth: {Min: 1, Max: 31},
	Month: {Min: 1, Max: 12, Names: []string{
		"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
	}},
	DayOfWeek: {Min: 0, Max: 7, Names: []string{
		"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN",
	}},
}

// DomainOf returns the domain of f.
func DomainOf(f Field) Domain {
	return domains[f]
}

// Set is the selection of values of one field. It is indexed by offset from
// the field's minimum and always has one slot per value in the domain.
type Set struct {
	field Field
	bits  []bool
}

func newSet(f Field) Set {
	return Set{field: f, bits: make([]bool, domains[f].Size())}
}

func (s Set) add(v int) {
	s.bits[v-domains[s.field].Min] = true
}

func (s Set) clone() Set {
	bits := make([]bool, len(s.bits))
	copy(bits, s.bits)
	return Set{field: s.field, bits: bits}
}

// Field returns the field this set belongs to.
func (s Set) Field() Field { return s.field }

// Has reports whether v is selected. Values outside the domain are never selected.
func (s Set) Has(v int) bool {
	i := v - domains[s.field].Min
	return i >= 0 && i < len(s.bits) && s.bits[i]
}

// Len returns the number of selected values.
func (s Set) Len() int {
	n := 0
	for _, b := range s.bits {
		if b {
			n++
		}
	}
	return n
}

// Full reports whether every value of the domain is selected.
func (s Set) Full() bool {
	return len(s.bits) > 0 && s.Len() == len(s.bits)
}

// Values returns the selected values in ascending order.
func (s Set) Values() []int {
	lo := domains[s.field].Min
	values := make([]int, 0, len(s.bits))
	for i, b := range s.bits {
		if b {
			values = append(values, lo+i)
		}
	}
	return values
}

// Equal reports whether both sets select the same values of the same field.
func (s Set) Equal(o Set) bool {
	if s.field != o.field || len(s.bits) != len(o.bits) {
		return false
	}
	for i := range s.bits {
		if s.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// String renders the set as a field expression that parses back to the same
// set: "*" when full, otherwise runs collapsed into ranges.
func (s Set) String() string {
	if s.Full() {
		return "*"
	}
	values := s.Values()
	parts := make([]string, 0, len(values))
	for i := 0; i < len(values); {
		j := i
		for j+1 < len(values) && values[j+1] == values[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, strconv.Itoa(values[i])+"-"+strconv.Itoa(values[j]))
		} else {
			parts = append(parts, strconv.Itoa(values[i]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// parseField parses one field expression. star reports whether any term was a
// literal wildcard.
func parseField(f Field, expr string) (set Set, star bool, err error) {
	d := domains[f]
	ast, err := fieldParser.ParseString(f.String(), strings.ToUpper(expr))
	if err != nil {
		return Set{}, false, malformedf(f.String(), expr, "%s", err)
	}

	set = newSet(f)
	for _, term := range ast.Terms {
		step := 1
		if term.Step != nil {
			n, err := strconv.Atoi(*term.Step)
			if err != nil {
				return Set{}, false, malformedf(f.String(), expr, "invalid step %q", *term.Step)
			}
			if n <= 0 {
				return Set{}, false, malformedf(f.String(), expr, "step must be positive, got %d", n)
			}
			step = n
		}

		lo, hi := d.Min, d.Max
		if term.Wildcard {
			star = true
		} else {
			start, err := resolve(f, d, expr, term.Start)
			if err != nil {
				return Set{}, false, err
			}
			if term.End == nil {
				// A step on a single value selects just that value.
				set.add(start)
				continue
			}
			end, err := resolve(f, d, expr, term.End)
			if err != nil {
				return Set{}, false, err
			}
			// SUN closes a weekday range as 7, so FRI-SUN is 5-7.
			if f == DayOfWeek && end == 0 && start > 0 {
				end = 7
			}
			if start > end {
				return Set{}, false, malformedf(f.String(), expr, "range start %d > end %d", start, end)
			}
			lo, hi = start, end
		}

		// Compare against the remaining distance so a huge step cannot
		// overflow v.
		for v := lo; ; v += step {
			set.add(v)
			if hi-v < step {
				break
			}
		}
	}

	// 0 and 7 are both Sunday.
	if f == DayOfWeek && (set.bits[0] || set.bits[7]) {
		set.bits[0], set.bits[7] = true, true
	}
	return set, star, nil
}

func resolve(f Field, d Domain, expr string, v *fieldValue) (int, error) {
	var n int
	switch {
	case v.Number != nil:
		value, err := strconv.Atoi(*v.Number)
		if err != nil {
			return 0, malformedf(f.String(), expr, "invalid value %q", *v.Number)
		}
		n = value
	case v.Name != nil:
		if d.Names == nil {
			return 0, malformedf(f.String(), expr, "names are not allowed, got %q", *v.Name)
		}
		value, ok := d.lookup(*v.Name)
		if !ok {
			return 0, malformedf(f.String(), expr, "unknown name %q", *v.Name)
		}
		n = value
	}
	if n < d.Min || n > d.Max {
		return 0, malformedf(f.String(), expr, "value %d out of range [%d-%d]", n, d.Min, d.Max)
	}
	return n, nil
}
