package dialog

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want EventKind
	}{
		{"/cancel", EventCancel},
		{"/cancel@weeek_bot", EventCancel},
		{"  /CANCEL  ", EventCancel},
		{"cancel", EventCancel},
		{"Cancel", EventCancel},
		{"ОТМЕНА", EventCancel},
		{"/start", EventHelp},
		{"/help", EventHelp},
		{"/unknown", EventText},
		{"/etc/hosts must be fixed by friday", EventText},
		{"cancel the meeting with Ivan", EventText},
		{"/", EventText},
		{"Prepare report", EventText},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Classify(TextEvent("c", tt.text), DefaultCancelPhrases)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got.Kind, tt.want)
			}
		})
	}
}

func TestClassifyCustomPhrases(t *testing.T) {
	phrases := []string{"stop"}
	if got := Classify(TextEvent("c", "STOP"), phrases); got.Kind != EventCancel {
		t.Errorf("custom phrase not recognized: %v", got.Kind)
	}
	if got := Classify(TextEvent("c", "cancel"), phrases); got.Kind != EventText {
		t.Errorf("default phrase recognized with custom list: %v", got.Kind)
	}
}

func TestClassifyLeavesOtherKinds(t *testing.T) {
	ev, ok := SelectEvent("c", "project:12")
	if !ok {
		t.Fatal("SelectEvent() rejected a valid token")
	}
	if got := Classify(ev, DefaultCancelPhrases); got.Kind != EventSelect || got.Slot != SlotProject || got.ChoiceID != "12" {
		t.Errorf("Classify(select) = %+v", got)
	}
	if _, ok := SelectEvent("c", "garbage"); ok {
		t.Error("SelectEvent() accepted a token without kind")
	}
}
