package dbcapabilities

import "strings"

// DatabaseID is the canonical identifier for a supported database technology.
// Use these constants to look up capability information.
type DatabaseID string

const (
	PostgreSQL DatabaseID = "postgres"
	MySQL      DatabaseID = "mysql"
	Cassandra  DatabaseID = "cassandra"
)

// DataParadigm enumerates the primary data storage paradigms a database supports.
type DataParadigm string

const (
	ParadigmRelational DataParadigm = "relational" // Tables, schemas, SQL
	ParadigmWideColumn DataParadigm = "widecolumn" // Partition/clustering keyed wide rows
)

// Capability describes one database technology in a way every consumer can
// use uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants).
	ID DatabaseID `json:"id"`

	// One-line description of the technology.
	Description string `json:"description,omitempty"`

	// Default port the technology listens on when none is configured.
	DefaultPort int `json:"defaultPort"`

	// Reserved databases (or keyspaces/schemas) that belong to the engine
	// itself. Listings exclude exact matches against SystemDatabases and
	// prefix matches against SystemDatabasePrefixes unless the connection
	// opts in to system objects.
	SystemDatabases        []string `json:"systemDatabases,omitempty"`
	SystemDatabasePrefixes []string `json:"systemDatabasePrefixes,omitempty"`

	// Primary data storage paradigms supported.
	Paradigms []DataParadigm `json:"paradigms"`

	// Common aliases (driver names, env labels) that map to this database.
	Aliases []string `json:"aliases,omitempty"`
}

// All is the capability registry keyed by canonical database ID.
var All = map[DatabaseID]Capability{
	PostgreSQL: {
		Name:            "PostgreSQL",
		ID:              PostgreSQL,
		Description:     "Open-source object-relational database",
		DefaultPort:     5432,
		SystemDatabases: []string{"postgres", "template0", "template1"},
		Paradigms:       []DataParadigm{ParadigmRelational},
		Aliases:         []string{"postgresql", "pgsql", "pg"},
	},
	MySQL: {
		Name:            "MySQL",
		ID:              MySQL,
		Description:     "Open-source relational database",
		DefaultPort:     3306,
		SystemDatabases: []string{"mysql", "information_schema", "performance_schema", "sys"},
		Paradigms:       []DataParadigm{ParadigmRelational},
		Aliases:         []string{"mariadb", "aurora-mysql"},
	},
	Cassandra: {
		Name:        "Cassandra",
		ID:          Cassandra,
		Description: "Distributed wide-column store",
		// The CQL native protocol port.
		DefaultPort: 9042,
		SystemDatabases: []string{
			"system",
			"system_schema",
			"system_auth",
			"system_traces",
			"system_distributed",
			"system_views",
			"system_virtual_schema",
		},
		SystemDatabasePrefixes: []string{"system"},
		Paradigms:              []DataParadigm{ParadigmWideColumn},
		Aliases:                []string{"cql", "scylla"},
	},
}

// nameToID resolves lowercase ids, product names and aliases to canonical IDs.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*2)
	for id, cap := range All {
		nameToID[strings.ToLower(string(id))] = id
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID attempts to resolve an arbitrary database name (canonical id, alias,
// or product name) to a canonical DatabaseID. Returns false if unknown.
func ParseID(name string) (DatabaseID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// Get returns capabilities for the given ID and a boolean indicating existence.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns capabilities for the given ID and panics if not found.
func MustGet(id DatabaseID) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// GetByName returns the Capability by looking up a free-form name (id or alias).
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// IDs returns the list of all known database IDs.
func IDs() []DatabaseID {
	out := make([]DatabaseID, 0, len(All))
	for id := range All {
		out = append(out, id)
	}
	return out
}

// IsSystemDatabase reports whether name is a reserved database of the given
// technology, matching the exact system set first and reserved prefixes after.
func IsSystemDatabase(id DatabaseID, name string) bool {
	c, ok := Get(id)
	if !ok {
		return false
	}
	lower := strings.ToLower(name)
	for _, s := range c.SystemDatabases {
		if lower == s {
			return true
		}
	}
	for _, p := range c.SystemDatabasePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// SupportsParadigm reports whether the database supports a given data paradigm.
func SupportsParadigm(id DatabaseID, p DataParadigm) bool {
	c, ok := Get(id)
	if !ok {
		return false
	}
	for _, dp := range c.Paradigms {
		if dp == p {
			return true
		}
	}
	return false
}
