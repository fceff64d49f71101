// Package retention owns recording lifetimes.
//
// Every recording carries an expires_at computed at creation from its
// show's default TTL, unless a per-recording override pins it. Changing a
// show default recomputes only the recordings still inheriting it;
// overridden rows keep their own schedule. The sweep deletes artifact and
// row together once the expiry passes, skipping items it cannot dispose of
// so a later sweep can retry.
//
// TTLs are calendar-relative: months honor month lengths rather than a
// fixed day count.
package retention
