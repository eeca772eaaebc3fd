package notifier

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"emarket/internal/domain"
	"emarket/internal/pkg/logger"
)

// Notifier é o colaborador de notificação na criação de produtos.
// A variante ativa é escolhida por configuração no main.go; a lógica de negócio
// nunca consulta o ambiente para decidir se notifica ou não.
type Notifier interface {
	ProductCreated(ctx context.Context, product domain.Product) error
}

// --- Variante No-Op ---

// NopNotifier descarta todas as notificações (padrão em desenvolvimento e testes).
type NopNotifier struct{}

// NewNopNotifier cria a variante no-op.
func NewNopNotifier() Notifier {
	return &NopNotifier{}
}

// ProductCreated não faz nada.
func (n *NopNotifier) ProductCreated(_ context.Context, _ domain.Product) error {
	return nil
}

// --- Variante SMTP ---

// SMTPNotifier envia um e-mail para a equipe de catálogo a cada produto criado.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
	log    logger.Logger
}

// NewSMTPNotifier cria a variante SMTP usando gomail.
func NewSMTPNotifier(host string, port int, user, password, from, to string, log logger.Logger) Notifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		to:     to,
		log:    log,
	}
}

// ProductCreated monta e envia o e-mail de notificação.
// Falhas aqui não abortam a criação do produto; o chamador apenas loga.
func (n *SMTPNotifier) ProductCreated(_ context.Context, product domain.Product) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("Novo produto no catálogo: %s", product.Title))
	m.SetBody("text/plain", fmt.Sprintf(
		"O produto %q (id %s) foi criado pelo vendedor %s com preço %.2f.",
		product.Title, product.ID.Hex(), product.SellerID.Hex(), product.Price,
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("falha ao enviar notificação SMTP: %w", err)
	}

	n.log.Debug("Notificação de criação de produto enviada.", map[string]interface{}{
		"product_id": product.ID.Hex(),
	})
	return nil
}
