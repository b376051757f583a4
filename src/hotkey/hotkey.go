package hotkey

import (
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Bindings wires the three logical input actions to callbacks. Trigger is
// configurable; Confirm and Cancel are fixed to Enter and Escape. Callbacks
// run on the hook goroutine and must not block: post into the event loop and
// return.
type Bindings struct {
	TriggerKey string
	OnTrigger  func()
	OnConfirm  func()
	OnCancel   func()
}

const (
	confirmKey = "enter"
	cancelKey  = "escape"
)

// Listen starts a global keyboard hook and dispatches the bound actions on
// key-down edges. Key repeat while held does not re-fire an action.
func Listen(b Bindings) {
	type action struct {
		name     string
		rawcodes []uint16
		fire     func()
		down     bool
	}

	actions := []*action{
		{name: "trigger", rawcodes: keyNameToRawcodes(b.TriggerKey), fire: b.OnTrigger},
		{name: "confirm", rawcodes: keyNameToRawcodes(confirmKey), fire: b.OnConfirm},
		{name: "cancel", rawcodes: keyNameToRawcodes(cancelKey), fire: b.OnCancel},
	}
	for _, a := range actions {
		if len(a.rawcodes) == 0 {
			log.Printf("ERROR: cannot map key for %s action, it will not work", a.name)
		}
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		log.Printf("Hotkey listener started: trigger=%q confirm=%q cancel=%q",
			b.TriggerKey, confirmKey, cancelKey)

		for ev := range evChan {
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			for _, a := range actions {
				if !matchesRawcode(a.rawcodes, ev.Rawcode) {
					continue
				}
				if ev.Kind == gohook.KeyDown {
					if !a.down {
						a.down = true
						log.Printf("hotkey: %s pressed", a.name)
						if a.fire != nil {
							a.fire()
						}
					}
				} else {
					a.down = false
				}
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

func matchesRawcode(rawcodes []uint16, rc uint16) bool {
	for _, c := range rawcodes {
		if c == rc {
			return true
		}
	}
	return false
}

// rawcodeTable maps normalized key names to virtual key code rawcodes as
// reported by gohook. Modifiers list both left and right variants.
var rawcodeTable = map[string][]uint16{
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"cmd":   {91, 92},
	"win":   {91, 92},
	"super": {91, 92},

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes resolves a key name to its rawcodes. Letters, digits and
// F1-F24 are derived; everything else comes from the table.
func keyNameToRawcodes(keyName string) []uint16 {
	name := strings.ToLower(strings.TrimSpace(keyName))
	if name == "" {
		return nil
	}

	if codes, ok := rawcodeTable[name]; ok {
		return codes
	}

	// Single letter a-z or digit 0-9.
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}

	// Function keys f1-f24 map to VK_F1 (112) onward.
	if strings.HasPrefix(name, "f") {
		n := 0
		for _, r := range name[1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	log.Printf("WARNING: unknown key name %q, cannot map to rawcode", keyName)
	return nil
}
