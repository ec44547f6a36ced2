/*
Package explorer maps file manager actions onto transactions.

Every action that touches several items (copy, move, delete, mkdir,
thumbnails) builds one transaction with one operation per item and runs it on
the explorer's manager. Single item reads (list, refresh, read, search) go
through transaction.DoValue so they show up on the change stream as well.

	ex, _ := explorer.New(explorer.Options{Manager: manager})
	tx, err := ex.Copy(ctx, src, []string{"docs"}, dst, "backup", explorer.CopyOptions{Recursive: true})

Copy first scans the sources in a Loading operation, then enqueues a
CopyDirectory operation per directory and a CopyFile operation per file.
Byte progress of file transfers is throttled to one report per
ProgressInterval.
*/
package explorer
