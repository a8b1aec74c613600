// Package cron parses crontab schedule lines and computes when they next fire.
//
// A line is either the @reboot directive followed by a command, a shorthand
// alias (@yearly, @monthly, @weekly, @daily, @hourly, ...) followed by a
// command, or five field expressions followed by a command:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12 or JAN-DEC)
//	│ │ │ │ ┌───────────── day of week (0-7 or SUN-SAT, 0 and 7 are Sunday)
//	│ │ │ │ │
//	* * * * * command to run
//
// Each field is a comma separated list of *, N or N-M terms, each optionally
// followed by /STEP. A day-of-week range may end in Sunday, so FRI-SUN and
// 5-0 both mean Friday through Sunday. Any other range must run from low to
// high.
//
// Day of month and day of week combine the traditional way: when either field
// contains a literal * a day must satisfy both, otherwise a day satisfying
// either one qualifies. So "* * 1,15 * SUN" fires on the 1st, the 15th and
// every Sunday, "* * * * SUN" fires only on Sundays and "0 0 1,15 * *" fires
// only on the 1st and 15th.
//
// Parsing and searching are pure functions of their inputs. Entry values are
// immutable and safe for concurrent use. Next never reads the wall clock; the
// caller supplies "now", and the result is in now's Location.
package cron
