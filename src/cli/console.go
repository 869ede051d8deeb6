package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"scltemplates/src/dialog"
	"scltemplates/src/workspace"
)

var (
	_ dialog.Prompter       = (*Console)(nil)
	_ workspace.SaveDecider = (*Console)(nil)
)

// Console is the line-oriented terminal shared by the dispatcher, the
// create/edit dialog and the save prompts.
type Console struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConsole constructs a console over in and out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

// ReadLine reads a line without newline characters. A last line without
// terminator is returned before io.EOF.
func (c *Console) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Print writes raw text.
func (c *Console) Print(text string) {
	fmt.Fprint(c.writer, text)
}

// Println writes a line with newline.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.writer, text)
}

// Printf writes a formatted line.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.writer, format+"\n", args...)
}

// Confirm asks a yes/no question until it gets an answer.
func (c *Console) Confirm(question string) (bool, error) {
	for {
		c.Print(question + " (y/n): ")
		answer, err := c.ReadLine()
		if err != nil {
			return false, err
		}
		switch strings.TrimSpace(strings.ToLower(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			c.Println("请输入 y 或 n")
		}
	}
}

// ConfirmSave asks whether the modified document at path should be written.
func (c *Console) ConfirmSave(path string) (bool, error) {
	return c.Confirm(fmt.Sprintf("文档已修改，是否保存 [%s]?", path))
}
