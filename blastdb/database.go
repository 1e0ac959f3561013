// Package blastdb models the supported remote sequence databases and
// resolves accession IDs to byte locations inside their volume objects.
//
// Each database is published as a snapshot: a timestamped prefix in public
// object storage holding numbered volume objects. Accession lookup goes
// through per-database trie and record artifacts built offline; the native
// volume index format is only consumed at build time.
package blastdb

import (
	"fmt"
)

// DatabaseID identifies a supported nucleotide database. The protein
// databases are out of scope: sequence decode assumes 2-bit nucleotide
// packing.
type DatabaseID uint8

const (
	DatabaseNT DatabaseID = iota + 1
	DatabaseRefViruses
	DatabaseRefProk
	DatabaseRefEuk
)

var databaseNames = [...]string{
	DatabaseNT:         "nt",
	DatabaseRefViruses: "ref_viruses_rep_genomes",
	DatabaseRefProk:    "ref_prok_rep_genomes",
	DatabaseRefEuk:     "ref_euk_rep_genomes",
}

var databaseIDs = func() map[string]DatabaseID {
	m := make(map[string]DatabaseID, len(databaseNames))
	for id, name := range databaseNames {
		if name != "" {
			m[name] = DatabaseID(id)
		}
	}
	return m
}()

// ErrUnknownDatabase is returned for database names outside the supported set.
type ErrUnknownDatabase struct {
	Name string
}

func (e *ErrUnknownDatabase) Error() string {
	return fmt.Sprintf("blastdb: unknown database %q", e.Name)
}

// ParseDatabaseID maps a database name to its ID.
func ParseDatabaseID(name string) (DatabaseID, error) {
	if id, ok := databaseIDs[name]; ok {
		return id, nil
	}
	return 0, &ErrUnknownDatabase{Name: name}
}

// Valid reports whether id is a defined database.
func (id DatabaseID) Valid() bool {
	return int(id) < len(databaseNames) && databaseNames[id] != ""
}

// RepGenomes reports whether the database holds representative genomes.
// Accessions from these databases double as the per-taxon representative
// genome lists.
func (id DatabaseID) RepGenomes() bool {
	return id.Valid() && id != DatabaseNT
}

// String returns the published database name.
func (id DatabaseID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("DatabaseID(%d)", uint8(id))
	}
	return databaseNames[id]
}

// Database is one deployed snapshot of a remote sequence database.
type Database struct {
	// ID names the database.
	ID DatabaseID
	// Snapshot is the published snapshot timestamp, the top-level prefix
	// under which the volume objects live.
	Snapshot string
	// Volumes is the number of volume objects in the snapshot.
	Volumes int
}

// Name returns the published database name.
func (d Database) Name() string { return d.ID.String() }

// VolumeKey derives the object key of a volume: the snapshot prefix followed
// by the volume file name. Multi-volume databases number their volumes with
// two-digit indices; a single-volume database has no index in the name.
func (d Database) VolumeKey(volume int) string {
	if d.Volumes <= 1 {
		return fmt.Sprintf("%s/%s.nsq", d.Snapshot, d.ID)
	}
	return fmt.Sprintf("%s/%s.%02d.nsq", d.Snapshot, d.ID, volume)
}

func (d Database) String() string {
	return fmt.Sprintf("%s@%s", d.ID, d.Snapshot)
}
