// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "datalake/internal/storage/all"
//
// Kinds made available: "lake", "sqlite", "mysql", "mssql", "postgres".
package all

import (
	_ "datalake/internal/storage/lake"
	_ "datalake/internal/storage/postgres"
	_ "datalake/internal/storage/sqldb"
)
