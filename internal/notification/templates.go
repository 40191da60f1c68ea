package notification

import "github.com/flowhq/flow-api/internal/models"

// EmailContent is a subject/body pair with placeholders not yet substituted.
type EmailContent struct {
	Subject string
	Body    string
}

var friendlyTemplates = []EmailContent{
	{
		Subject: "Friendly reminder about Invoice {{invoiceId}}",
		Body: `Hi {{clientName}},<br><br>
I hope this email finds you well. I wanted to send a friendly reminder that Invoice {{invoiceId}} for {{amount}} was due on {{dueDate}}.<br><br>
If you've already taken care of this, please disregard this email. Otherwise, I'd appreciate if you could process the payment at your earliest convenience.<br><br>
Thanks so much!<br>
{{businessName}}`,
	},
	{
		Subject: "Following up on Invoice {{invoiceId}}",
		Body: `Hi {{clientName}},<br><br>
I'm following up on Invoice {{invoiceId}} for {{amount}} which was due on {{dueDate}}.<br><br>
If there are any questions or concerns about this invoice, please don't hesitate to reach out. I'm here to help!<br><br>
Thank you for your attention to this matter.<br><br>
Best regards,<br>
{{businessName}}`,
	},
	{
		Subject: "Final reminder: Invoice {{invoiceId}} is overdue",
		Body: `Hi {{clientName}},<br><br>
This is a final reminder that Invoice {{invoiceId}} for {{amount}} is now overdue (due date: {{dueDate}}).<br><br>
Please arrange payment as soon as possible. If you have any questions, please contact me directly.<br><br>
Thank you,<br>
{{businessName}}`,
	},
}

var professionalTemplates = []EmailContent{
	{
		Subject: "Payment reminder: Invoice {{invoiceId}}",
		Body: `Dear {{clientName}},<br><br>
This is a reminder that Invoice {{invoiceId}} for {{amount}} was due on {{dueDate}} and is currently {{daysPastDue}} day(s) past due.<br><br>
Please arrange payment at your earliest convenience. If payment has already been made, kindly disregard this notice.<br><br>
Regards,<br>
{{businessName}}`,
	},
	{
		Subject: "Second notice: Invoice {{invoiceId}} remains unpaid",
		Body: `Dear {{clientName}},<br><br>
Our records show that Invoice {{invoiceId}} for {{amount}}, due {{dueDate}}, remains outstanding.<br><br>
Please remit payment or contact us to discuss the account.<br><br>
Regards,<br>
{{businessName}}`,
	},
	{
		Subject: "Final notice: Invoice {{invoiceId}}",
		Body: `Dear {{clientName}},<br><br>
This is the final notice regarding Invoice {{invoiceId}} for {{amount}}, due on {{dueDate}}.<br><br>
Please settle the outstanding balance promptly to keep the account in good standing.<br><br>
Regards,<br>
{{businessName}}`,
	},
}

var firmTemplates = []EmailContent{
	{
		Subject: "Payment Required: Invoice {{invoiceId}}",
		Body: `Dear {{clientName}},<br><br>
Invoice {{invoiceId}} for {{amount}} was due on {{dueDate}} and remains unpaid.<br><br>
Please process payment immediately to avoid any service interruption.<br><br>
{{businessName}}`,
	},
	{
		Subject: "Overdue Payment: Invoice {{invoiceId}}",
		Body: `Dear {{clientName}},<br><br>
Invoice {{invoiceId}} for {{amount}} is now overdue (due date: {{dueDate}}).<br><br>
Immediate payment is required. Please remit payment within 48 hours.<br><br>
{{businessName}}`,
	},
	{
		Subject: "URGENT: Final Notice for Invoice {{invoiceId}}",
		Body: `Dear {{clientName}},<br><br>
This is a final notice regarding Invoice {{invoiceId}} for {{amount}} which was due on {{dueDate}}.<br><br>
Payment must be received immediately to avoid further action.<br><br>
{{businessName}}`,
	},
}

// DefaultTemplate returns the compiled-in template for a tone and 1-based
// nudge ordinal. Ordinals past the last authored variant clamp to the last
// one, so a fourth or fifth reminder reuses the final-notice wording. Unknown
// tones fall back to friendly.
func DefaultTemplate(tone models.MessageTone, ordinal int) EmailContent {
	var set []EmailContent
	switch tone {
	case models.ToneFriendly:
		set = friendlyTemplates
	case models.ToneProfessional:
		set = professionalTemplates
	case models.ToneFirm:
		set = firmTemplates
	default:
		set = friendlyTemplates
	}

	idx := ordinal - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(set) {
		idx = len(set) - 1
	}
	return set[idx]
}
