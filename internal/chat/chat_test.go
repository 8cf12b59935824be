package chat

import "testing"

func TestNormalizeSender(t *testing.T) {
	cases := []struct {
		tag  string
		want Sender
	}{
		{"agent", SenderAgent},
		{"wizard", SenderAgent},
		{"bot", SenderAgent},
		{"  User ", SenderUser},
		{"system", SenderSystem},
		{"admin", SenderSystem},
		{"", SenderSystem},
	}
	for _, c := range cases {
		if got := NormalizeSender(c.tag); got != c.want {
			t.Errorf("NormalizeSender(%q) = %q, want %q", c.tag, got, c.want)
		}
	}
}

func TestAppendOrderAndIDs(t *testing.T) {
	l := NewLog()
	a := l.Append(SenderUser, "hello")
	b := l.Append(SenderAgent, "greetings")
	c := l.Append(SenderSystem, "lab started")

	if a.ID >= b.ID || b.ID >= c.ID {
		t.Fatalf("ids not monotonic: %d %d %d", a.ID, b.ID, c.ID)
	}

	msgs := l.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range []Sender{SenderUser, SenderAgent, SenderSystem} {
		if msgs[i].Sender != want {
			t.Errorf("msgs[%d].Sender = %q, want %q", i, msgs[i].Sender, want)
		}
	}

	last, ok := l.Last()
	if !ok || last.Text != "lab started" {
		t.Fatalf("Last() = %+v, %v", last, ok)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append(SenderUser, "one")
	msgs := l.Messages()
	msgs[0].Text = "tampered"
	if got := l.Messages()[0].Text; got != "one" {
		t.Fatalf("log mutated through copy: %q", got)
	}
}
