package hypercall

import "testing"

func TestConstructorsSetKind(t *testing.T) {
	cases := []struct {
		name string
		msg  Msg
		want Kind
	}{
		{"getchar", NewGetChar(), KindGetChar},
		{"putchar", NewPutChar('a'), KindPutChar},
		{"settimer", NewSetTimer(1), KindSetTimer},
		{"reset", NewReset(0), KindReset},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.msg.Kind != c.want {
				t.Errorf("expected Kind %v, got %v", c.want, c.msg.Kind)
			}
		})
	}
}

func TestTrapConstructors(t *testing.T) {
	st := NewSetTimerTrap(42)
	if st.Kind != TrapSetTimer || st.Deadline != 42 {
		t.Errorf("unexpected SetTimerTrap: %+v", st)
	}

	tie := NewTimerInterruptEmulationTrap()
	if tie.Kind != TrapTimerInterruptEmulation {
		t.Errorf("unexpected TimerInterruptEmulationTrap: %+v", tie)
	}
}
