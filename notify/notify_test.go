package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyUsesTitle(t *testing.T) {
	var got []string
	n := &Notifier{
		title: "Refix",
		send: func(title, message string) error {
			got = append(got, title+": "+message)
			return nil
		},
	}

	n.Notify("No text selected")
	assert.Equal(t, []string{"Refix: No text selected"}, got)
}

func TestNotifySwallowsErrors(t *testing.T) {
	n := &Notifier{
		title: "Refix",
		send:  func(string, string) error { return errors.New("no dbus") },
	}

	assert.NotPanics(t, func() { n.Notify("hello") })
}
