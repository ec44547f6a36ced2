/*
Package transaction implements the execution engine behind explorer actions.

	+-----------+      +---------------+      +-------------+
	|  Manager  |----->|  Transaction  |----->|  Operation  |
	| (registry)|      | (cap + scope) |      | (unit work) |
	+-----+-----+      +-------+-------+      +------+------+
	      ^                    |                     |
	      +------ Change ------+---------------------+

🎯 Purpose:
- Queue uploads, downloads, copies, moves, deletes, directory creation and searches
- Bound how many operations of a transaction run at once
- Cancel at three levels: caller, operation, transaction
- Aggregate progress and failures into one outcome

🔄 Flow:
 1. Manager.CreateTransaction(cap)
 2. Transaction.Enqueue / EnqueueWithProgress for each piece of work
 3. Transaction.Run starts operations in enqueue order, each acquiring a slot
    of the transaction's gate, and waits for all of them
 4. Subscribers of Manager.Subscribe observe every lifecycle change
 5. Transaction.Dispose evicts the transaction from the manager

🚦 Outcome of Run, by precedence:
 1. *CanceledError{Transaction: true} when the transaction was canceled
 2. *AggregateError with one fault per failed operation, in enqueue order
 3. *CanceledError when only some operations were canceled
 4. nil

🔍 Example:

	mgr := transaction.NewManager(ctx)
	tx := mgr.CreateTransaction(2)
	defer tx.Dispose()

	size := int64(len(data))
	_, err := tx.EnqueueWithProgress(transaction.KindUploadFile, "upload a.txt", &size, ctx,
		func(ctx context.Context, report transaction.ProgressFunc) error {
			report(size, size)
			return nil
		})
	if err != nil {
		return err
	}
	if err := tx.Run(); err != nil {
		return err
	}
*/
package transaction
