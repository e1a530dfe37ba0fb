package mcp

// NoInput is the input for tools that take no arguments.
type NoInput struct{}

// OpenAuxiliaryInput is the input for the open_auxiliary tool.
type OpenAuxiliaryInput struct {
	Kind    string `json:"kind" jsonschema:"Auxiliary window kind from config (e.g. mini, dashboard)"`
	Context string `json:"context,omitempty" jsonschema:"Optional context payload forwarded to the window as a <kind>-context event"`
}

// KindInput is the input for close_auxiliary.
type KindInput struct {
	Kind string `json:"kind" jsonschema:"Auxiliary window kind to close"`
}

// CreatePopupInput is the input for the create_popup tool.
type CreatePopupInput struct {
	Label string `json:"label" jsonschema:"Unique label for the popup; main and auxiliary kinds are reserved"`
	Title string `json:"title,omitempty" jsonschema:"Window title"`
	URL   string `json:"url" jsonschema:"Content URL loaded into the popup"`
}

// LabelInput addresses a window by label.
type LabelInput struct {
	Label string `json:"label" jsonschema:"Window label"`
}

// ActionOutput is returned by tools that only change window state.
type ActionOutput struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
}

// WindowInfo describes one live window.
type WindowInfo struct {
	Label      string `json:"label"`
	Role       string `json:"role"`
	Kind       string `json:"kind,omitempty"`
	Visibility string `json:"visibility"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	Generation int    `json:"generation"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	State   string       `json:"state"`
	Uptime  string       `json:"uptime"`
	Kinds   []string     `json:"kinds"`
	Windows []WindowInfo `json:"windows"`
}
