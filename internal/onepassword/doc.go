// Package onepassword wraps the 1Password CLI (op) for storing login items.
//
// The wrapper shells out rather than speaking the Connect API so that the
// user's existing op session and biometric unlock keep working. A dry-run
// mode prints the would-be invocation with the password masked and returns a
// mock item.
package onepassword
