package keyboard

// Keysym is an X keysym value.
type Keysym uint32

// Keysyms outside the Latin-1 range that the layouts use.
const (
	NoSymbol        Keysym = 0
	XKBackSpace     Keysym = 0xff08
	XKTab           Keysym = 0xff09
	XKReturn        Keysym = 0xff0d
	XKPause         Keysym = 0xff13
	XKScrollLock    Keysym = 0xff14
	XKSysReq        Keysym = 0xff15
	XKEscape        Keysym = 0xff1b
	XKHome          Keysym = 0xff50
	XKLeft          Keysym = 0xff51
	XKUp            Keysym = 0xff52
	XKRight         Keysym = 0xff53
	XKDown          Keysym = 0xff54
	XKPrior         Keysym = 0xff55
	XKNext          Keysym = 0xff56
	XKEnd           Keysym = 0xff57
	XKPrint         Keysym = 0xff61
	XKInsert        Keysym = 0xff63
	XKMenu          Keysym = 0xff67
	XKNumLock       Keysym = 0xff7f
	XKKPEnter       Keysym = 0xff8d
	XKKPHome        Keysym = 0xff95
	XKKPLeft        Keysym = 0xff96
	XKKPUp          Keysym = 0xff97
	XKKPRight       Keysym = 0xff98
	XKKPDown        Keysym = 0xff99
	XKKPPrior       Keysym = 0xff9a
	XKKPNext        Keysym = 0xff9b
	XKKPEnd         Keysym = 0xff9c
	XKKPBegin       Keysym = 0xff9d
	XKKPInsert      Keysym = 0xff9e
	XKKPDelete      Keysym = 0xff9f
	XKKPMultiply    Keysym = 0xffaa
	XKKPAdd         Keysym = 0xffab
	XKKPSubtract    Keysym = 0xffad
	XKKPDecimal     Keysym = 0xffae
	XKKPDivide      Keysym = 0xffaf
	XKKP0           Keysym = 0xffb0
	XKF1            Keysym = 0xffbe
	XKShiftL        Keysym = 0xffe1
	XKShiftR        Keysym = 0xffe2
	XKControlL      Keysym = 0xffe3
	XKControlR      Keysym = 0xffe4
	XKCapsLock      Keysym = 0xffe5
	XKAltL          Keysym = 0xffe9
	XKAltR          Keysym = 0xffea
	XKSuperL        Keysym = 0xffeb
	XKSuperR        Keysym = 0xffec
	XKDelete        Keysym = 0xffff
	XKDeadCircumflx Keysym = 0xfe52
	XKDeadDiaeresis Keysym = 0xfe57
)

// Named keys for event logical keys.
const (
	NamedShift   = "Shift"
	NamedControl = "Control"
	NamedAlt     = "Alt"
	NamedSuper   = "Super"
)

// Named returns the logical name of a non-character keysym, or "" for
// keysyms that produce characters.
func (ks Keysym) Named() string {
	switch ks {
	case XKShiftL, XKShiftR:
		return NamedShift
	case XKControlL, XKControlR:
		return NamedControl
	case XKAltL, XKAltR:
		return NamedAlt
	case XKSuperL, XKSuperR:
		return NamedSuper
	case XKCapsLock:
		return "CapsLock"
	case XKNumLock:
		return "NumLock"
	case XKScrollLock:
		return "ScrollLock"
	case XKEscape:
		return "Escape"
	case XKReturn, XKKPEnter:
		return "Enter"
	case XKTab:
		return "Tab"
	case XKBackSpace:
		return "Backspace"
	case XKDelete:
		return "Delete"
	case XKLeft, XKKPLeft:
		return "ArrowLeft"
	case XKRight, XKKPRight:
		return "ArrowRight"
	case XKUp, XKKPUp:
		return "ArrowUp"
	case XKDown, XKKPDown:
		return "ArrowDown"
	case XKHome, XKKPHome:
		return "Home"
	case XKEnd, XKKPEnd:
		return "End"
	case XKPrior, XKKPPrior:
		return "PageUp"
	case XKNext, XKKPNext:
		return "PageDown"
	case XKInsert, XKKPInsert:
		return "Insert"
	case XKMenu:
		return "ContextMenu"
	case XKPause:
		return "Pause"
	case XKSysReq, XKPrint:
		return "PrintScreen"
	case XKDeadCircumflx, XKDeadDiaeresis:
		return "Dead"
	}
	if ks >= XKF1 && ks < XKF1+12 {
		return "F" + itoa(int(ks-XKF1)+1)
	}
	return ""
}

// Text returns the text ks produces, or "" when it produces none.
func (ks Keysym) Text() string {
	switch {
	case ks == XKReturn || ks == XKKPEnter:
		return "\r"
	case ks == XKTab:
		return "\t"
	case ks == XKBackSpace:
		return "\b"
	case ks == XKEscape:
		return "\x1b"
	case ks == XKDelete:
		return "\x7f"
	case ks >= XKKP0 && ks <= XKKP0+9:
		return string(rune('0' + int(ks-XKKP0)))
	case ks == XKKPMultiply:
		return "*"
	case ks == XKKPAdd:
		return "+"
	case ks == XKKPSubtract:
		return "-"
	case ks == XKKPDecimal:
		return "."
	case ks == XKKPDivide:
		return "/"
	case ks >= 0x20 && ks <= 0x7e, ks >= 0xa0 && ks <= 0xff:
		return string(rune(ks))
	case ks&0xff000000 == 0x01000000:
		return string(rune(ks & 0x00ffffff))
	}
	return ""
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
