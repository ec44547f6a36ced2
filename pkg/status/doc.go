/*
Package status follows a transaction manager's change stream and turns it
into something a person can read.

	            +-------------+
	            |   Manager   |
	            | (changes)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+             +-----+-----+
	|  Tracker  |             | Progress  |
	| snapshots |             |    Bar    |
	+-----------+             +-----------+

🎯 Purpose:
- Keeps a snapshot of every transaction seen on the stream
- Counts added, ended, faulted and canceled operations
- Writes one formatted line per ended operation
- Draws the aggregate progress of a transaction

🔄 Flow:
1. Tracker subscribes to the manager
2. Every change refreshes the snapshot of its transaction
3. Ended operations are formatted with a FileFormatter
4. The end of a transaction releases anyone blocked in Wait

🤝 Interfaces:
- FileFormatter: formats operation and progress lines
- Tracker: snapshot store fed by the change stream
- ProgressBar: pterm bar sampling ProgressValue

Usage:

	tracker := status.NewTracker(ctx, manager, status.Options{Out: os.Stdout})
	defer tracker.Close()

	tx, err := explorer.Copy(ctx, src, paths, dst, "out", opts)
	if tx != nil {
		_ = tracker.Wait(ctx, tx.ID())
		summary, _ := tracker.Transaction(tx.ID())
		fmt.Println(summary.Ended, "operations")
	}

Changes are delivered on the subscription's own goroutine, so a snapshot may
trail the transaction by a few events until Wait returns.
*/
package status
