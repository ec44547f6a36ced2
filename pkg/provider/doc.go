/*
Package provider defines the file system boundary the explorer works against.

	            +--------------+
	            |  FileSystem  |
	            +------+-------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|  local   | |  github  | |    s3    |
	| (rooted) | | (ro ref) | | (prefix) |
	+----------+ +----------+ +----------+

🎯 Purpose:
- One interface for listing, reading, writing and removing entries
- Slash separated paths relative to a root, "" being the root
- Sentinel errors shared by every adapter (ErrNotFound, ErrReadOnly, ErrNotEmpty)

🔄 Flow:
1. Adapters register a Factory from their package init
2. Open picks the factory matching config.Source.Provider
3. The explorer drives the returned FileSystem from inside operations

🔍 Example:

	import _ "github.com/walteh/vfsops/pkg/provider/local"

	fs, err := provider.Open(ctx, config.Source{Name: "docs", Provider: "local", Root: "/data"})
	if err != nil {
		return err
	}
	items, err := fs.List(ctx, "reports")
*/
package provider
