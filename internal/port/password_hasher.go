package port

type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A mismatch is (false, nil);
	// an error means the hash itself could not be checked.
	Verify(hash, password string) (bool, error)
}
