// Package auth verifies bearer tokens, carries the caller identity through
// request contexts and hashes account passwords.
package auth

import "github.com/joao-fontenele/storefront/internal/domain"

type Identity = domain.Identity
