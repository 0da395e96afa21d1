package tasks

// Task names persisted in ScheduledTask rows.
const (
	TaskMarkOverdueInvoices = "invoice.mark_overdue"
	TaskExpirePaymentLinks  = "payment_link.expire"
)

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(TaskMarkOverdueInvoices, MarkOverdueInvoicesHandler)
	RegisterHandler(TaskExpirePaymentLinks, ExpirePaymentLinksHandler)
}
