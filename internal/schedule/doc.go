// Package schedule evaluates five-field cron-like expressions against wall
// clock time.
//
// The dialect is deliberately narrow: minute and hour are single values,
// day-of-month and month only accept `*`, and day-of-week carries the
// expressive weight with values, lists, and week-wrapping ranges. Evaluation
// answers membership — is now inside an occurrence window — rather than
// next-fire-time, because the scheduler decides "should this show be
// recording right now" on every tick.
package schedule
