// Package all registers every built-in sink backend with the storage
// factory. Import it for side effects only:
//
//	import _ "custdq/internal/storage/all"
package all

import (
	_ "custdq/internal/storage/mssql"
	_ "custdq/internal/storage/mysql"
	_ "custdq/internal/storage/postgres"
	_ "custdq/internal/storage/sqlite"
)
