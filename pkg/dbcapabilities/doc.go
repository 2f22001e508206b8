// Package dbcapabilities provides a registry describing the database
// technologies DataNav can connect to. Providers and the connection registry
// import it for canonical identifiers, alias resolution, default ports and the
// system-catalog names excluded from listings by default.
//
// Minimal usage example:
//
//	import "github.com/ctacke/DataNav/pkg/dbcapabilities"
//
//	func isReserved(providerType, database string) bool {
//	    id, ok := dbcapabilities.ParseID(providerType)
//	    if !ok {
//	        return false
//	    }
//	    return dbcapabilities.IsSystemDatabase(id, database)
//	}
//
// The package exposes constants for IDs (e.g., dbcapabilities.Cassandra), a
// registry `All` for advanced consumers, and a URL connection-string parser
// for configuration surfaces.
package dbcapabilities
