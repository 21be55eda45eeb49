// Package auth groups the authentication building blocks used by the
// account service and the HTTP middleware:
//
//   - auth/jwt      HS* signed access tokens over a generic claims type
//   - auth/password bcrypt or argon2id password hashing
//   - auth/authctx  typed claims propagation through context.Context
//
// The top-level Config composes the sub-configurations:
//
//	auth:
//	  enabled: true
//	  jwt:
//	    secret: "change-me"
//	    access_token_ttl: "30m"
//	  password:
//	    algorithm: "bcrypt"
package auth
