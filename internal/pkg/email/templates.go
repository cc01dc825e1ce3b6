package email

// BaseTemplate wraps every message body
const BaseTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background: #f4f5f7; color: #1f2328; }
        .container { max-width: 560px; margin: 0 auto; padding: 32px 16px; }
        .card { background: #ffffff; border-radius: 10px; padding: 28px; border: 1px solid #e3e5e8; }
        .muted { color: #6b7280; font-size: 13px; }
        table.receipt { width: 100%; border-collapse: collapse; margin: 16px 0; }
        table.receipt td { padding: 8px 0; border-bottom: 1px solid #eef0f2; }
        table.receipt td.value { text-align: right; font-weight: 600; }
        .button { display: inline-block; padding: 12px 20px; background: #4f46e5; color: #ffffff; border-radius: 8px; text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            {{.Content}}
        </div>
        <p class="muted">You received this email because a purchase was made with your account.</p>
    </div>
</body>
</html>`

// TokensPurchasedTemplate is the purchase receipt
const TokensPurchasedTemplate = `
<h2>Thanks for your purchase</h2>
<p>Your tokens have been added to your balance.</p>
<table class="receipt">
    <tr><td>Order</td><td class="value">{{.OrderID}}</td></tr>
    <tr><td>Tokens</td><td class="value">{{.Tokens}}</td></tr>
    <tr><td>Amount</td><td class="value">{{.Amount}} {{.Currency}}</td></tr>
    <tr><td>Paid with</td><td class="value">{{.Provider}}</td></tr>
</table>
{{if .DashboardURL}}<p><a class="button" href="{{.DashboardURL}}">Open dashboard</a></p>{{end}}
`
