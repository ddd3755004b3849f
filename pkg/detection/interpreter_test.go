package detection

import (
	"testing"

	"github.com/veriscan/go-docscan/pkg/protocol"
)

func TestDeriveMessage_PriorityOrder(t *testing.T) {
	cases := []struct {
		name    string
		checks  protocol.Checks
		spoof   protocol.SpoofLabel
		wantMsg string
		wantCat Category
	}{
		{
			name:    "spoof screen outranks everything",
			checks:  protocol.Checks{Glare: protocol.CheckFail, Blur: protocol.CheckFail},
			spoof:   protocol.SpoofScreen,
			wantMsg: msgSpoofScreen,
			wantCat: CategoryError,
		},
		{
			name:    "spoof print",
			checks:  protocol.Checks{},
			spoof:   protocol.SpoofPrint,
			wantMsg: msgSpoofPrint,
			wantCat: CategoryError,
		},
		{
			name:    "real spoof label falls through to metrics",
			checks:  protocol.Checks{Blur: protocol.CheckWarn},
			spoof:   protocol.SpoofReal,
			wantMsg: msgBlur,
			wantCat: CategoryWarning,
		},
		{
			name:    "glare beats blur",
			checks:  protocol.Checks{Glare: protocol.CheckWarn, Blur: protocol.CheckFail},
			wantMsg: msgGlare,
			wantCat: CategoryWarning,
		},
		{
			name:    "blur beats brightness",
			checks:  protocol.Checks{Blur: protocol.CheckFail, Brightness: protocol.CheckFail},
			wantMsg: msgBlur,
			wantCat: CategoryWarning,
		},
		{
			name:    "brightness beats contrast",
			checks:  protocol.Checks{Brightness: protocol.CheckWarn, Contrast: protocol.CheckFail},
			wantMsg: msgBrightness,
			wantCat: CategoryWarning,
		},
		{
			name:    "contrast alone",
			checks:  protocol.Checks{Contrast: protocol.CheckFail},
			wantMsg: msgContrast,
			wantCat: CategoryWarning,
		},
		{
			name: "all passing",
			checks: protocol.Checks{
				Brightness: protocol.CheckPass,
				Contrast:   protocol.CheckPass,
				Blur:       protocol.CheckPass,
				Glare:      protocol.CheckPass,
			},
			wantMsg: msgGoodPosition,
			wantCat: CategorySuccess,
		},
		{
			name:    "no checks reported",
			checks:  protocol.Checks{},
			wantMsg: msgGoodPosition,
			wantCat: CategorySuccess,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, cat := deriveMessage(tc.checks, tc.spoof)
			if msg != tc.wantMsg {
				t.Errorf("message: got %q, want %q", msg, tc.wantMsg)
			}
			if cat != tc.wantCat {
				t.Errorf("category: got %q, want %q", cat, tc.wantCat)
			}
		})
	}
}
