package dialog

import (
	"context"
	"fmt"
	"strings"

	"scltemplates/src/scl"
)

// Prompter is the console surface the dialog talks through.
type Prompter interface {
	Print(text string)
	Println(text string)
	ReadLine() (string, error)
}

// removeMarker clears an optional attribute when answered during an edit.
const removeMarker = "-"

// Console asks for each schema attribute on a line-oriented console.
type Console struct {
	prompter Prompter
}

// NewConsole builds a console dialog.
func NewConsole(prompter Prompter) *Console {
	return &Console{prompter: prompter}
}

// Create prompts for every attribute. A blank required answer cancels.
func (c *Console) Create(ctx context.Context, doc *scl.Document, req CreateRequest) ([]scl.Action, error) {
	schema, ok := Schema(req.Tag)
	if !ok {
		return nil, fmt.Errorf("不支持创建元素: %s", req.Tag)
	}
	c.prompter.Println(fmt.Sprintf("新建 %s (必填项留空取消)", req.Tag))
	answers := Answers{Attributes: map[string]scl.Value{}}
	for _, spec := range schema.Attributes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := c.ask(spec, "")
		if err != nil {
			return nil, err
		}
		if line == "" {
			if spec.Required {
				c.prompter.Println("已取消")
				return nil, nil
			}
			continue
		}
		answers.Attributes[spec.Name] = scl.String(line)
	}
	if schema.Text {
		text, err := c.askText("")
		if err != nil {
			return nil, err
		}
		answers.Text = &text
	}
	return BuildCreate(doc, req, answers)
}

// Edit prompts with the current values. A blank answer keeps the value and
// "-" removes an optional attribute. No changes cancel.
func (c *Console) Edit(ctx context.Context, doc *scl.Document, req EditRequest) ([]scl.Action, error) {
	if !doc.Valid(req.Element) {
		return nil, scl.ErrInvalidHandle
	}
	schema, ok := Schema(doc.Tag(req.Element))
	if !ok {
		return nil, fmt.Errorf("不支持编辑元素: %s", doc.Tag(req.Element))
	}
	c.prompter.Println(fmt.Sprintf("编辑 %s (留空保留原值，- 删除可选属性)", doc.Label(req.Element)))
	answers := Answers{Attributes: map[string]scl.Value{}}
	for _, spec := range schema.Attributes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, _ := doc.Attr(req.Element, spec.Name)
		line, err := c.ask(spec, current)
		if err != nil {
			return nil, err
		}
		switch {
		case line == "":
		case line == removeMarker && !spec.Required:
			answers.Attributes[spec.Name] = scl.Null
		default:
			answers.Attributes[spec.Name] = scl.String(line)
		}
	}
	if schema.Text {
		text, err := c.askText(doc.Text(req.Element))
		if err != nil {
			return nil, err
		}
		if text != "" {
			answers.Text = &text
		}
	}
	actions, err := BuildEdit(doc, req, answers)
	if err != nil || len(actions) == 0 {
		return nil, err
	}
	return actions, nil
}

func (c *Console) ask(spec AttributeSpec, current string) (string, error) {
	marker := ""
	if spec.Required {
		marker = "*"
	}
	if current != "" {
		c.prompter.Print(fmt.Sprintf("%s%s [%s]: ", spec.Name, marker, current))
	} else {
		c.prompter.Print(fmt.Sprintf("%s%s: ", spec.Name, marker))
	}
	line, err := c.prompter.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) askText(current string) (string, error) {
	if current != "" {
		c.prompter.Print(fmt.Sprintf("text [%s]: ", current))
	} else {
		c.prompter.Print("text: ")
	}
	line, err := c.prompter.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
