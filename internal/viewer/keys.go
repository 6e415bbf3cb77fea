package viewer

import (
	"golang.org/x/mobile/event/key"
)

// Action names a user command reachable from the keyboard or a button.
type Action string

const (
	ActQuit           Action = "quit"
	ActUndo           Action = "undo"
	ActRedo           Action = "redo"
	ActExport         Action = "export"
	ActCopy           Action = "copy"
	ActPaste          Action = "paste"
	ActRotateLeft     Action = "rotate-left"
	ActRotateRight    Action = "rotate-right"
	ActFlipH          Action = "flip-h"
	ActFlipV          Action = "flip-v"
	ActResetAdjust    Action = "reset-adjustments"
	ActDelete         Action = "delete"
	ActConfirm        Action = "confirm"
	ActCancel         Action = "cancel"
	ActWider          Action = "wider"
	ActNarrower       Action = "narrower"
	ActUpscale        Action = "upscale"
	ActSelectSubject  Action = "select-subject"
	ActRemoveBg       Action = "remove-background"
	ActClearSubject   Action = "clear-subject"
	ActAnalyze        Action = "analyze"
	ActToolNone       Action = "tool:none"
	ActToolAdjust     Action = "tool:adjust"
	ActToolTransform  Action = "tool:transform"
	ActToolCrop       Action = "tool:crop"
	ActToolDraw       Action = "tool:draw"
	ActToolText       Action = "tool:text"
	ActToolShape      Action = "tool:shape"
	ActToolSelect     Action = "tool:select"
	ActToolHarmonize  Action = "tool:harmonize"
	ActToolRemove     Action = "tool:remove"
	ActFocusNext      Action = "focus-next"
	ActFocusPrev      Action = "focus-prev"
	ActIncrease       Action = "increase"
	ActDecrease       Action = "decrease"
	ActShapeRectangle Action = "shape:rectangle"
	ActShapeCircle    Action = "shape:circle"
	ActShapeLine      Action = "shape:line"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Printable keys match on Rune alone; everything else on Code and
// Modifiers.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

func runeKey(r rune) KeyShortcut { return KeyShortcut{Rune: r} }

func ctrlKey(c key.Code) KeyShortcut { return KeyShortcut{Code: c, Modifiers: key.ModControl} }

func codeKey(c key.Code) KeyShortcut { return KeyShortcut{Code: c} }

// binding ties an action to its shortcuts and the hint shown in the
// status bar.
type binding struct {
	action Action
	hint   string
	keys   []KeyShortcut
}

var bindings = []binding{
	{ActQuit, "Q:quit", []KeyShortcut{runeKey('q'), runeKey('Q')}},
	{ActUndo, "^Z:undo", []KeyShortcut{ctrlKey(key.CodeZ)}},
	{ActRedo, "^Y:redo", []KeyShortcut{ctrlKey(key.CodeY), {Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift}}},
	{ActExport, "^S:export", []KeyShortcut{ctrlKey(key.CodeS)}},
	{ActCopy, "^C:copy", []KeyShortcut{ctrlKey(key.CodeC)}},
	{ActPaste, "^V:paste", []KeyShortcut{ctrlKey(key.CodeV)}},
	{ActRotateLeft, "[:rotate", []KeyShortcut{runeKey('[')}},
	{ActRotateRight, "", []KeyShortcut{runeKey(']')}},
	{ActFlipH, "f/F:flip", []KeyShortcut{runeKey('f')}},
	{ActFlipV, "", []KeyShortcut{runeKey('F')}},
	{ActResetAdjust, "", []KeyShortcut{runeKey('0')}},
	{ActDelete, "", []KeyShortcut{codeKey(key.CodeDeleteForward), codeKey(key.CodeDeleteBackspace)}},
	{ActConfirm, "", []KeyShortcut{codeKey(key.CodeReturnEnter)}},
	{ActCancel, "", []KeyShortcut{codeKey(key.CodeEscape)}},
	{ActWider, "", []KeyShortcut{runeKey('.')}},
	{ActNarrower, "", []KeyShortcut{runeKey(',')}},
	{ActUpscale, "U:upscale", []KeyShortcut{runeKey('u')}},
	{ActSelectSubject, "M:subject", []KeyShortcut{runeKey('m')}},
	{ActRemoveBg, "", []KeyShortcut{runeKey('k')}},
	{ActClearSubject, "", []KeyShortcut{runeKey('M')}},
	{ActAnalyze, "", []KeyShortcut{runeKey('?')}},
	{ActToolNone, "", []KeyShortcut{runeKey('n')}},
	{ActToolAdjust, "", []KeyShortcut{runeKey('a')}},
	{ActToolTransform, "", []KeyShortcut{runeKey('g')}},
	{ActToolCrop, "", []KeyShortcut{runeKey('c')}},
	{ActToolDraw, "", []KeyShortcut{runeKey('b')}},
	{ActToolText, "", []KeyShortcut{runeKey('t')}},
	{ActToolShape, "", []KeyShortcut{runeKey('s')}},
	{ActToolSelect, "", []KeyShortcut{runeKey('v')}},
	{ActToolHarmonize, "", []KeyShortcut{runeKey('h')}},
	{ActToolRemove, "", []KeyShortcut{runeKey('e')}},
	{ActFocusNext, "", []KeyShortcut{codeKey(key.CodeRightArrow)}},
	{ActFocusPrev, "", []KeyShortcut{codeKey(key.CodeLeftArrow)}},
	{ActIncrease, "", []KeyShortcut{codeKey(key.CodeUpArrow)}},
	{ActDecrease, "", []KeyShortcut{codeKey(key.CodeDownArrow)}},
	{ActShapeRectangle, "", []KeyShortcut{runeKey('1')}},
	{ActShapeCircle, "", []KeyShortcut{runeKey('2')}},
	{ActShapeLine, "", []KeyShortcut{runeKey('3')}},
}

// keyboardAction maps a keyboard shortcut to the action name.
var keyboardAction = func() map[KeyShortcut]Action {
	m := make(map[KeyShortcut]Action)
	for _, b := range bindings {
		for _, k := range b.keys {
			m[k] = b.action
		}
	}
	return m
}()

// toolKeys lists the letter that selects each tool, for button labels.
var toolKeys = func() map[Action]rune {
	m := make(map[Action]rune)
	for _, b := range bindings {
		if len(b.action) > 5 && b.action[:5] == "tool:" {
			m[b.action] = b.keys[0].Rune
		}
	}
	return m
}()

// lookup resolves a key press. Control combinations match by code so the
// layout's rune for them does not matter.
func lookup(e key.Event) (Action, bool) {
	var ks KeyShortcut
	switch {
	case e.Modifiers&key.ModControl != 0:
		ks = KeyShortcut{Code: e.Code, Modifiers: e.Modifiers & (key.ModControl | key.ModShift)}
	case e.Rune > 0 && e.Code != key.CodeReturnEnter && e.Code != key.CodeEscape &&
		e.Code != key.CodeDeleteBackspace && e.Code != key.CodeDeleteForward:
		ks = KeyShortcut{Rune: e.Rune}
	default:
		ks = KeyShortcut{Code: e.Code}
	}
	a, ok := keyboardAction[ks]
	return a, ok
}

// hints returns the status bar shortcut legend.
func hints() []string {
	var out []string
	for _, b := range bindings {
		if b.hint != "" {
			out = append(out, b.hint)
		}
	}
	return out
}
