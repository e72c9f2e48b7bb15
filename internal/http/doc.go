// Package http exposes the reservation engine over JSON/HTTP.
//
// Routes:
//   - POST /auth/signup, POST /auth/signin: create an account or sign in. Body
//     {"email","password"}. Response {"token","expires_at","uid","email"}; the
//     token is also set as the `session_token` cookie and `X-Session-Token` header.
//   - POST /auth/signout: revokes the presented token. 204.
//   - POST /auth/admin-signup: {"email","password","name","admission_secret"}.
//   - GET /rooms, GET /rooms/{id}/bookings?date=, GET /availability?date=,
//     GET /slots: public catalog and occupancy views.
//   - POST /bookings: creates a pending reservation; signed-in callers default
//     the email to their own. GET /bookings/mine and DELETE /bookings/{id} need
//     a signed-in caller.
//   - /admin/bookings: GET lists with ?date=&email=, PUT /{id}/status changes
//     status, DELETE /{id} removes, GET /export downloads CSV. Administrators only.
//
// Tokens are read from `Authorization: Bearer <token>` or the session cookie.
// Errors are JSON {"error_code","message","errors","conflicts"} with 401, 403,
// 404, 409, 422, 429 or 500.
package http
