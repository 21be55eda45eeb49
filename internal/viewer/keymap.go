package viewer

// Key bindings.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyEnter     = "enter"
	KeyEsc       = "esc"
	KeyBackspace = "backspace"
	KeySpace     = " "
	KeySpaceName = "space"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeySearch    = "/"
	KeyClass     = "c"
	KeyMode      = "m"
	KeyReload    = "r"
)
