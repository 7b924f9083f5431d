// Package credential resolves the hub access token.
//
// Resolution order for every auth challenge:
//  1. haToken from the runtime config document (app-config.json), fetched
//     once and cached after the first success
//  2. the token environment variable (optionally loaded from .env files)
//  3. none, in which case ErrNoToken is returned and the caller sends an
//     empty credential
package credential
