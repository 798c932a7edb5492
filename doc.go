// Package movieverse implements a movie catalog API core: user accounts,
// credential verification, JWT issuance and validation, and the
// user-favorites relationship over the catalog.
//
// Authentication flow:
//   - Login verifies credentials through UserProvider and mints a signed,
//     expiring bearer token bound to the user's immutable id.
//   - Every protected request is validated by middleware/jwtware: signature
//     and expiry checks run before the store is touched, then the token
//     subject is re-resolved against the users repository so handlers always
//     observe current account state. A deleted account therefore invalidates
//     its outstanding tokens at the resolve step; no denylist is kept.
//
// Favorites:
//   - A user's favorites are a set of catalog references persisted in a join
//     table. Add and remove are single conditional store writes, so both
//     operations are idempotent and safe under concurrent requests for the
//     same account.
package movieverse
