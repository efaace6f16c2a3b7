package restaurantorders

import "embed"

// Migrations holds the SQL schema files applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
