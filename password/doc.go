// Package password implements Argon2id credential hashing in PHC string
// format with constant-time verification.
//
// The directory never persists a plaintext credential. Data files inherited
// from the legacy deployment may still carry plaintext values; [IsEncoded]
// lets the engine detect those and upgrade them to a hash on the next
// successful login.
//
// # What this package must NOT do
//
//   - Perform I/O other than reading crypto/rand.
//   - Import examauth or any sibling package.
package password
