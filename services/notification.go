package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/Lei-jenny/Travel-with-Me/config"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// Notifier tells trip members about changes that concern them. Delivery is
// best effort: implementations log failures and never return them.
type Notifier interface {
	ExpenseAdded(ctx context.Context, n ExpenseNotice)
	MemberAdded(ctx context.Context, trip models.Trip, adder, member models.User)
	Invited(ctx context.Context, email, inviterName, tripName string)
}

// ExpenseNotice describes a new expense and what each participant owes.
type ExpenseNotice struct {
	Trip    models.Trip
	Expense models.Expense
	Payer   models.User
	Owers   []Ower
}

type Ower struct {
	User   models.User
	Amount decimal.Decimal
}

type emailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService sends email through SendGrid and push through Firebase
// Cloud Messaging. Either channel is skipped when it is not configured.
type NotificationService struct {
	db      *gorm.DB
	email   emailSender
	push    pushSender
	from    *mail.Email
	appName string
	appURL  string
}

func NewNotificationService(ctx context.Context, cfg *config.Config, db *gorm.DB) *NotificationService {
	ns := &NotificationService{
		db:      db,
		from:    mail.NewEmail(cfg.AppName, cfg.SendGridFrom),
		appName: cfg.AppName,
		appURL:  cfg.AppURL,
	}

	if cfg.SendGridAPIKey != "" {
		ns.email = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	} else {
		logger.L().Warn("SENDGRID_API_KEY not set, email notifications disabled")
	}

	if cfg.FirebaseCredPath != "" {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredPath))
		if err == nil {
			var client *messaging.Client
			if client, err = app.Messaging(ctx); err == nil {
				ns.push = client
			}
		}
		if err != nil {
			logger.L().Warn("firebase unavailable, push notifications disabled", zap.Error(err))
		}
	} else {
		logger.L().Warn("FIREBASE_CREDENTIALS not set, push notifications disabled")
	}

	return ns
}

func (ns *NotificationService) ExpenseAdded(ctx context.Context, n ExpenseNotice) {
	total := utils.FormatAmount(n.Expense.TotalAmount)
	for _, o := range n.Owers {
		if o.User.ID == n.Expense.PaidBy || o.Amount.IsZero() {
			continue
		}
		share := utils.FormatAmount(o.Amount)

		title := fmt.Sprintf("%s added an expense", n.Payer.Name)
		body := fmt.Sprintf("You owe %s %s for \"%s\" in %s", n.Expense.Currency, share, n.Expense.Title, n.Trip.Name)
		ns.sendPush(ctx, o.User, title, body, map[string]string{
			"type":       models.ActivityExpenseAdded,
			"expense_id": n.Expense.ID.String(),
			"trip_id":    n.Trip.ID.String(),
		})

		html, err := render(expenseEmail, map[string]string{
			"UserName":  o.User.Name,
			"PayerName": n.Payer.Name,
			"TripName":  n.Trip.Name,
			"Title":     n.Expense.Title,
			"Currency":  n.Expense.Currency,
			"Total":     total,
			"Share":     share,
			"AppName":   ns.appName,
		})
		if err != nil {
			logger.L().Error("render expense email", zap.Error(err))
			continue
		}
		subject := fmt.Sprintf("%s added \"%s\" in %s", n.Payer.Name, n.Expense.Title, n.Trip.Name)
		ns.sendEmail(ctx, o.User.Email, o.User.Name, subject, body, html)
	}
}

func (ns *NotificationService) MemberAdded(ctx context.Context, trip models.Trip, adder, member models.User) {
	title := fmt.Sprintf("You were added to \"%s\"", trip.Name)
	body := fmt.Sprintf("%s added you to the trip \"%s\"", adder.Name, trip.Name)

	ns.sendPush(ctx, member, title, body, map[string]string{
		"type":    models.ActivityMemberJoined,
		"trip_id": trip.ID.String(),
	})

	html, err := render(memberAddedEmail, map[string]string{
		"MemberName": member.Name,
		"AdderName":  adder.Name,
		"TripName":   trip.Name,
		"AppName":    ns.appName,
	})
	if err != nil {
		logger.L().Error("render member email", zap.Error(err))
		return
	}
	ns.sendEmail(ctx, member.Email, member.Name, title, body, html)
}

func (ns *NotificationService) Invited(ctx context.Context, email, inviterName, tripName string) {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, tripName, ns.appName)
	html, err := render(invitationEmail, map[string]string{
		"InviterName": inviterName,
		"TripName":    tripName,
		"AppName":     ns.appName,
		"AppURL":      ns.appURL,
	})
	if err != nil {
		logger.L().Error("render invitation email", zap.Error(err))
		return
	}
	ns.sendEmail(ctx, email, "", subject, subject, html)
}

func (ns *NotificationService) sendPush(ctx context.Context, user models.User, title, body string, data map[string]string) {
	if ns.push == nil || user.FCMToken == "" {
		return
	}

	_, err := ns.push.Send(ctx, &messaging.Message{
		Token:        user.FCMToken,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	switch {
	case err == nil:
		logger.L().Debug("push sent", zap.String("user_id", user.ID.String()))
	case messaging.IsUnregistered(err):
		logger.L().Info("dropping unregistered fcm token", zap.String("user_id", user.ID.String()))
		if ns.db != nil {
			ns.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("fcm_token", "")
		}
	default:
		logger.L().Warn("push failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (ns *NotificationService) sendEmail(ctx context.Context, toEmail, toName, subject, text, html string) {
	if ns.email == nil || toEmail == "" {
		return
	}

	msg := mail.NewSingleEmail(ns.from, subject, mail.NewEmail(toName, toEmail), text, html)
	resp, err := ns.email.SendWithContext(ctx, msg)
	switch {
	case err != nil:
		logger.L().Warn("email send failed", zap.String("to", toEmail), zap.Error(err))
	case resp.StatusCode >= 300:
		logger.L().Warn("sendgrid rejected email", zap.String("to", toEmail), zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
	default:
		logger.L().Debug("email sent", zap.String("to", toEmail))
	}
}

func render(t *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const emailFrame = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		{{template "content" .}}
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`

var (
	expenseEmail = template.Must(template.Must(template.New("expense").Parse(emailFrame)).Parse(`{{define "content"}}
		<h2 style="color: #C5A059; margin-top: 0;">New trip expense</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> paid for something in <strong>{{.TripName}}</strong>:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Title}}</strong></p>
			<p style="margin: 4px 0; color: #666;">Total: {{.Currency}} {{.Total}}</p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Currency}} {{.Share}}</strong></p>
		</div>{{end}}`))

	memberAddedEmail = template.Must(template.Must(template.New("member").Parse(emailFrame)).Parse(`{{define "content"}}
		<h2 style="color: #C5A059; margin-top: 0;">You joined a trip</h2>
		<p>Hi <strong>{{.MemberName}}</strong>,</p>
		<p><strong>{{.AdderName}}</strong> added you to <strong>"{{.TripName}}"</strong>.</p>
		<p>Open the app to see the itinerary and shared expenses.</p>{{end}}`))

	invitationEmail = template.Must(template.Must(template.New("invitation").Parse(emailFrame)).Parse(`{{define "content"}}
		<h2 style="color: #C5A059; margin-top: 0;">You're invited!</h2>
		<p><strong>{{.InviterName}}</strong> invited you to join <strong>"{{.TripName}}"</strong> on {{.AppName}}.</p>
		<div style="margin: 24px 0;">
			<a href="{{.AppURL}}" style="background: #C5A059; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join the trip</a>
		</div>{{end}}`))
)
