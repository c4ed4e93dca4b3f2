package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"niiexplorer/internal/models"
)

// Shell reads line commands and applies them to a Session. It is the
// terminal stand-in for the widgets of a graphical viewer.
type Shell struct {
	session  *Session
	out      io.Writer
	commands map[string]command
}

type command struct {
	usage string
	help  string
	run   func(args []string) error
}

// errQuit ends Run
var errQuit = errors.New("quit")

// NewShell creates a shell that prints to out
func NewShell(s *Session, out io.Writer) *Shell {
	sh := &Shell{session: s, out: out}

	confirm := command{"", "confirm the current slice", sh.confirm}
	up := command{"", "scroll to the next slice", func([]string) error { return sh.scroll(1) }}
	down := command{"", "scroll to the previous slice", func([]string) error { return sh.scroll(-1) }}

	sh.commands = map[string]command{
		"ls":         {"", "list the volumes of the folder", sh.list},
		"open":       {"<n|name>", "select a volume by number or name", sh.open},
		"next":       {"", "select the next volume", sh.next},
		"prev":       {"", "select the previous volume", sh.prev},
		"axis":       {"<axial|coronal|sagittal>", "switch the slicing axis", sh.axis},
		"index":      {"<n>", "go to slice n", sh.index},
		"up":         up,
		"down":       down,
		"+":          up,
		"-":          down,
		"zoom":       {"<percent>", "set the display zoom", sh.zoom},
		"confirm":    confirm,
		"g":          confirm,
		"show":       {"", "show the annotations of the current volume", sh.show},
		"status":     {"", "show the navigation state", sh.status},
		"export":     {"", "export the annotations of the current volume", sh.exportCurrent},
		"export-all": {"", "export all annotations", sh.exportAll},
		"dump":       {"<dir>", "write images of the confirmed slices", sh.dump},
		"help":       {"", "list commands", sh.help},
		"quit":       {"", "leave without saving", func([]string) error { return errQuit }},
	}
	return sh
}

// Run executes commands read from in until "quit" or end of input. Command
// errors are printed and do not stop the loop.
func (sh *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sh.prompt()
	for scanner.Scan() {
		quit, err := sh.Execute(scanner.Text())
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		sh.prompt()
	}
	return scanner.Err()
}

// Execute runs a single command line and reports whether the shell should
// stop.
func (sh *Shell) Execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, ok := sh.commands[strings.ToLower(fields[0])]
	if !ok {
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}

	err := cmd.run(fields[1:])
	if err == errQuit {
		return true, nil
	}
	return false, err
}

func (sh *Shell) prompt() {
	fmt.Fprint(sh.out, "> ")
}

func (sh *Shell) list([]string) error {
	_, pos, _ := sh.session.Current()
	for i, name := range sh.session.Files() {
		marker := " "
		if i == pos {
			marker = "*"
		}
		count := sh.session.Store().Describe(name).Total()
		fmt.Fprintf(sh.out, "%s %3d  %s (%d confirmed)\n", marker, i+1, name, count)
	}
	return nil
}

func (sh *Shell) open(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open <n|name>")
	}
	var err error
	if n, convErr := strconv.Atoi(args[0]); convErr == nil {
		err = sh.session.SelectIndex(n - 1)
	} else {
		err = sh.session.Select(args[0])
	}
	if err != nil {
		return err
	}
	return sh.afterSelect()
}

func (sh *Shell) next([]string) error {
	if err := sh.session.NextFile(); err != nil {
		return err
	}
	return sh.afterSelect()
}

func (sh *Shell) prev([]string) error {
	if err := sh.session.PrevFile(); err != nil {
		return err
	}
	return sh.afterSelect()
}

func (sh *Shell) afterSelect() error {
	if err := sh.status(nil); err != nil {
		return err
	}
	return sh.show(nil)
}

func (sh *Shell) axis(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: axis <axial|coronal|sagittal>")
	}
	a, err := models.ParseAxis(args[0])
	if err != nil {
		return err
	}
	if err := sh.session.SetAxis(a); err != nil {
		return err
	}
	return sh.status(nil)
}

func (sh *Shell) index(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: index <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}
	if err := sh.session.SetIndex(n); err != nil {
		return err
	}
	return sh.status(nil)
}

func (sh *Shell) scroll(delta int) error {
	if err := sh.session.Scroll(delta); err != nil {
		return err
	}
	return sh.status(nil)
}

func (sh *Shell) zoom(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zoom <percent>")
	}
	p, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
	if err != nil {
		return fmt.Errorf("invalid zoom %q", args[0])
	}
	if err := sh.session.SetZoom(p); err != nil {
		return err
	}
	return sh.status(nil)
}

func (sh *Shell) confirm([]string) error {
	if _, _, ok := sh.session.Current(); !ok {
		return nil
	}
	sh.session.Confirm()
	return sh.show(nil)
}

func (sh *Shell) show([]string) error {
	if text := sh.session.Describe(); text != "" {
		fmt.Fprintln(sh.out, text)
	}
	return nil
}

func (sh *Shell) status([]string) error {
	fmt.Fprintln(sh.out, sh.session.Status())
	return nil
}

func (sh *Shell) exportCurrent([]string) error {
	path, err := sh.session.ExportCurrent()
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(sh.out, "saved %s\n", path)
	}
	return nil
}

func (sh *Shell) exportAll([]string) error {
	path, err := sh.session.ExportAll()
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(sh.out, "saved %s\n", path)
	}
	return nil
}

func (sh *Shell) dump(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dump <dir>")
	}
	files, err := sh.session.ExportConfirmedSlices(args[0])
	fmt.Fprintf(sh.out, "wrote %d images\n", len(files))
	return err
}

func (sh *Shell) help([]string) error {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := sh.commands[name]
		fmt.Fprintf(sh.out, "  %-28s %s\n", strings.TrimSpace(name+" "+cmd.usage), cmd.help)
	}
	return nil
}
