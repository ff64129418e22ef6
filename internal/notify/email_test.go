package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSendGridSender(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil), "no API key means no sender")

	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "SG.test",
		FromEmail: "noreply@estudiolume.com.br",
	}, nil)
	assert.NotNil(t, sender)
	assert.Equal(t, "Leads", sender.fromName, "default from name applies")
}
