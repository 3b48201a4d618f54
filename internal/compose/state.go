package compose

// toolKind discriminates the pending tool state.
type toolKind int

const (
	toolNone toolKind = iota
	toolFile
	toolWeb
)

// ToolState is the pending grounding context for the next submission. It is
// a tagged value: at most one of file context and web search is set, and
// the constructors are the only way to build one, so the two can never be
// active together.
type ToolState struct {
	kind     toolKind
	fileName string
	fileText string
}

// NoTool is the neutral state: plain chat with no grounding.
func NoTool() ToolState { return ToolState{kind: toolNone} }

// FileTool carries an extracted file as grounding context.
func FileTool(name, text string) ToolState {
	return ToolState{kind: toolFile, fileName: name, fileText: text}
}

// WebTool enables web-search grounding for the next submission.
func WebTool() ToolState { return ToolState{kind: toolWeb} }

// HasFile reports whether file context is pending.
func (s ToolState) HasFile() bool { return s.kind == toolFile }

// WebEnabled reports whether web-search grounding is pending.
func (s ToolState) WebEnabled() bool { return s.kind == toolWeb }

// FileName returns the attached file's name, or "" without a file.
func (s ToolState) FileName() string {
	if s.kind != toolFile {
		return ""
	}
	return s.fileName
}
