package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-shellwords"

	"scltemplates/src/logging"
	"scltemplates/src/statistics"
	"scltemplates/src/workspace"
)

// Dispatcher interprets user commands.
type Dispatcher struct {
	ws      *workspace.Workspace
	console *Console
	logger  *logging.Manager
	diag    hclog.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(ws *workspace.Workspace, console *Console, diag hclog.Logger) *Dispatcher {
	if diag == nil {
		diag = hclog.NewNullLogger()
	}
	return &Dispatcher{
		ws:      ws,
		console: console,
		logger:  ws.Logger(),
		diag:    diag,
	}
}

// Run processes interactive commands until exit, end of input or ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			_ = d.handleExit()
			return
		}
		d.console.Print("> ")
		line, err := d.console.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = d.handleExit()
				return
			}
			d.console.Printf("读取命令失败: %v", err)
			continue
		}
		exit, err := d.execute(ctx, line)
		if err != nil {
			d.console.Printf("错误: %v", err)
			continue
		}
		if exit {
			return
		}
	}
}

// Execute runs a single command.
func (d *Dispatcher) Execute(raw string) error {
	_, err := d.execute(context.Background(), raw)
	return err
}

func (d *Dispatcher) execute(ctx context.Context, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	tokens, err := tokenize(raw)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]
	var targetFile string
	var exit bool

	switch cmd {
	case "load":
		if len(args) != 1 {
			return false, errors.New("用法: load <file>")
		}
		ed, err := d.ws.Load(args[0])
		if err != nil {
			return false, err
		}
		targetFile = ed.Path()
		d.console.Println("已加载: " + ed.Path())
	case "init":
		if len(args) < 1 || len(args) > 2 {
			return false, errors.New("用法: init <file> [with-log]")
		}
		withLog := len(args) == 2 && args[1] == "with-log"
		ed, err := d.ws.Init(args[0], withLog)
		if err != nil {
			return false, err
		}
		targetFile = ed.Path()
		d.console.Println("已创建缓冲区: " + ed.Path())
	case "save":
		switch {
		case len(args) == 0:
			if err := d.ws.Save(""); err != nil {
				return false, err
			}
			if ed, _ := d.ws.ActiveEditor(); ed != nil {
				targetFile = ed.Path()
			}
			d.console.Println("已保存当前文件")
		case len(args) == 1 && strings.ToLower(args[0]) == "all":
			if err := d.ws.SaveAll(); err != nil {
				return false, err
			}
			d.console.Println("已保存全部文件")
		case len(args) == 1:
			ed, err := d.ws.EditorByPath(args[0])
			if err != nil {
				return false, err
			}
			if err := d.ws.Save(ed.Path()); err != nil {
				return false, err
			}
			targetFile = ed.Path()
			d.console.Println("已保存: " + ed.Path())
		default:
			return false, errors.New("用法: save [file|all]")
		}
	case "close":
		var requesting string
		if len(args) > 0 {
			requesting = args[0]
			if ed, err := d.ws.EditorByPath(requesting); err == nil {
				targetFile = ed.Path()
			}
		} else if ed, _ := d.ws.ActiveEditor(); ed != nil {
			targetFile = ed.Path()
		}
		if err := d.ws.Close(requesting); err != nil {
			return false, err
		}
		d.console.Println("已关闭")
	case "edit":
		if len(args) != 1 {
			return false, errors.New("用法: edit <file>")
		}
		if err := d.ws.Edit(args[0]); err != nil {
			return false, err
		}
		if ed, _ := d.ws.ActiveEditor(); ed != nil {
			targetFile = ed.Path()
		}
		d.console.Println("已切换活动文件")
	case "editor-list":
		d.printEditors()
	case "dir-tree":
		var dir string
		if len(args) > 0 {
			dir = args[0]
		}
		result, err := d.ws.DirTree(dir)
		if err != nil {
			return false, err
		}
		if result == "" {
			d.console.Println("(没有 SCL 文件)")
		} else {
			d.console.Println(result)
		}
	case "undo":
		if err := d.ws.Undo(); err != nil {
			return false, err
		}
		if ed, err := d.ws.ActiveEditor(); err == nil {
			targetFile = ed.Path()
		}
		d.console.Println("已撤销")
	case "redo":
		if err := d.ws.Redo(); err != nil {
			return false, err
		}
		if ed, err := d.ws.ActiveEditor(); err == nil {
			targetFile = ed.Path()
		}
		d.console.Println("已重做")
	case "log-on":
		fileArg, err := d.resolveFileArg(args)
		if err != nil {
			return false, err
		}
		if err := d.logger.Enable(fileArg); err != nil {
			return false, err
		}
		targetFile = fileArg
		d.console.Println("已开启日志")
	case "log-off":
		fileArg, err := d.resolveFileArg(args)
		if err != nil {
			return false, err
		}
		if err := d.logger.Disable(fileArg); err != nil {
			return false, err
		}
		targetFile = fileArg
		d.console.Println("已关闭日志")
	case "log-show":
		fileArg, err := d.resolveFileArg(args)
		if err != nil {
			return false, err
		}
		targetFile = fileArg
		content, err := d.logger.Show(fileArg)
		if err != nil {
			return false, err
		}
		d.console.Println(content)
	case "exit":
		if err := d.handleExit(); err != nil {
			return false, err
		}
		exit = true
	default:
		handler, ok := templateCommands[cmd]
		if !ok {
			return false, fmt.Errorf("未知命令: %s", cmd)
		}
		file, err := handler(d, ctx, args)
		if err != nil {
			return false, err
		}
		targetFile = file
	}

	d.diag.Trace("command executed", "command", cmd, "file", targetFile)
	if cmd != "exit" {
		d.ws.PublishCommand(cmd, raw, targetFile)
	}
	return exit, nil
}

func (d *Dispatcher) resolveFileArg(args []string) (string, error) {
	if len(args) > 1 {
		return "", errors.New("命令参数过多")
	}
	if len(args) == 1 {
		if ed, err := d.ws.EditorByPath(args[0]); err == nil {
			return ed.Path(), nil
		}
		if strings.HasPrefix(args[0], "/") {
			return args[0], nil
		}
		return d.ws.BaseDir() + "/" + args[0], nil
	}
	ed, err := d.ws.ActiveEditor()
	if err != nil {
		return "", err
	}
	return ed.Path(), nil
}

func (d *Dispatcher) printEditors() {
	for _, info := range d.ws.List() {
		activeMark := " "
		if info.Active {
			activeMark = "*"
		}
		line := fmt.Sprintf("%s %s", activeMark, info.Name)
		if info.Modified {
			line += " [modified]"
		}
		line += fmt.Sprintf(" (%s, %d 次提交, %d 次撤销)", statistics.FormatDuration(info.Duration), info.Commits, info.Undos)
		d.console.Println(line)
	}
}

func (d *Dispatcher) handleExit() error {
	for _, info := range d.ws.List() {
		if !info.Modified {
			continue
		}
		save, err := d.console.ConfirmSave(info.Path)
		if err != nil {
			return err
		}
		if save {
			if err := d.ws.Save(info.Path); err != nil {
				return err
			}
		}
	}
	if err := d.ws.Persist(); err != nil {
		return err
	}
	d.console.Println("已退出并保存工作区状态")
	return nil
}

func tokenize(line string) ([]string, error) {
	parser := shellwords.NewParser()
	tokens, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("命令解析失败: %w", err)
	}
	return tokens, nil
}
