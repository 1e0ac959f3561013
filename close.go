package taxgo

// Close releases the resources held by the DB, unmapping any mapped
// artifacts. The DB must not be used afterwards.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	var firstErr error
	for _, c := range db.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	db.closers = nil
	return firstErr
}
