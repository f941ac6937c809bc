// Package http provides HTTP handlers and middleware for the rotation API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","principal":{"user_id","is_admin"}} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content.
//   - GET /users, POST /users, GET /users/{id}: account endpoints exchanging the
//     `userDTO` payload defined in user_handler.go. Creation requires admin
//     privileges.
//   - GET /groups, POST /groups, GET /groups/{id}: rotation group endpoints
//     exchanging the `groupDTO` payload defined in group_handler.go.
//   - POST /groups/{id}/members, DELETE /groups/{id}/members/{userID}: membership
//     endpoints. Removal also clears the member's future rotations and reports the
//     removed count.
//   - POST /groups/{id}/skip-weeks: declares one member ineligible for one period.
//   - GET /groups/{id}/rotations, POST /groups/{id}/rotations: lists and schedules
//     rotations. Scheduling is not transactional: a mid-batch failure returns the
//     rotations already applied together with the error code.
//   - POST /groups/{id}/rotations/swap: replaces the assignee for one period.
//   - DELETE /rotations/{id}: cancels one rotation and its calendar event.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
