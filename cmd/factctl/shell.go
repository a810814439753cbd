package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

const helpText = `commands:
  list                       show the facts (fetches on first use)
  refresh                    refetch with the current filters
  category <name|all>        filter by category
  sort <order>               e.g. created_at_asc, votesInteresting_desc
  search [term]              filter locally; no term clears it
  categories                 list the categories
  open <id>                  show one fact and its comments
  back                       return to the list
  vote <field> [id]          interesting, mindblowing or false
  comments                   show the comments of the open fact
  comment <text>             comment on the open fact
  new                        open or close the create form
  set <field> <value>        fill the form (title, text, source, category, image, secret)
  form                       show the form
  submit                     create the fact, or save the edit
  edit | delete              ask for the secret key of the open fact
  key <secret>               answer the secret key prompt
  cancel                     abandon the prompt or the edit
  help                       this text
  quit                       exit`

var errQuit = errors.New("quit")

type shell struct {
	session    *views.Session
	categories *valueobjects.CategoryTable
	out        io.Writer
}

func newShell(session *views.Session, categories *valueobjects.CategoryTable, out io.Writer) *shell {
	return &shell{session: session, categories: categories, out: out}
}

// Run reads commands from in until EOF, quit or ctx is done.
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.printf("factshub - type help for commands\n")
	for {
		s.printf("> ")
		if !scanner.Scan() {
			s.printf("\n")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		err := s.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.printf("error: %s\n", apperrors.UserMessage(err))
		}
	}
}

// Exec runs one command line.
func (s *shell) Exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	list, detail := s.session.List, s.session.Detail

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "help", "?":
		s.printf("%s\n", helpText)
		return nil
	case "quit", "exit":
		return errQuit

	case "list", "ls":
		if !s.session.Store.Loaded() {
			if err := list.Refresh(ctx); err != nil {
				return err
			}
		}
		s.printList()
		return nil
	case "refresh":
		if err := list.Refresh(ctx); err != nil {
			return err
		}
		s.printList()
		return nil
	case "category":
		if err := list.SelectCategory(ctx, strings.ToLower(arg)); err != nil {
			return err
		}
		s.printList()
		return nil
	case "sort":
		if err := list.SelectSortString(ctx, arg); err != nil {
			return err
		}
		s.printList()
		return nil
	case "search":
		list.Search(arg)
		s.printList()
		return nil
	case "categories":
		for _, c := range list.Categories() {
			s.printf("  %-14s %s\n", c.Name, c.Color)
		}
		return nil

	case "open":
		if arg == "" {
			return apperrors.NewValidation("usage: open <id>")
		}
		err := detail.Open(ctx, valueobjects.ID(arg))
		if _, ok := detail.Fact(); !ok {
			if err == nil {
				err = apperrors.NewNotFound("fact not found")
			}
			return err
		}
		s.printDetail()
		return err
	case "back":
		detail.Close()
		s.printList()
		return nil

	case "vote":
		return s.vote(ctx, arg)

	case "comments":
		if detail.FocusedID() == "" {
			return apperrors.NewValidation("open a fact first")
		}
		s.printComments(detail.Comments())
		return nil
	case "comment":
		if _, err := detail.SubmitComment(ctx, arg); err != nil {
			return err
		}
		s.printComments(detail.Comments())
		return nil

	case "new":
		if list.ToggleForm() {
			s.printf("form open; fill it with set <field> <value>, then submit\n")
		} else {
			s.printf("form closed\n")
		}
		return nil
	case "set":
		field, value, _ := strings.Cut(arg, " ")
		return s.activeForm().Set(field, strings.TrimSpace(value))
	case "form":
		s.printForm(s.activeForm())
		return nil
	case "submit":
		return s.submit(ctx)

	case "edit":
		if err := detail.RequestEdit(); err != nil {
			return err
		}
		s.printf("enter the secret key with: key <secret>\n")
		return nil
	case "delete":
		if err := detail.RequestDelete(); err != nil {
			return err
		}
		s.printf("enter the secret key with: key <secret>\n")
		return nil
	case "key":
		if err := detail.VerifySecret(ctx, arg); err != nil {
			return err
		}
		if detail.ShouldNavigateToList() {
			s.printf("fact deleted\n")
			detail.Close()
			s.printList()
			return nil
		}
		s.printf("editing; change fields with set <field> <value>, then submit\n")
		s.printForm(detail.Form())
		return nil
	case "cancel":
		if st, _ := detail.GateState(); st == views.Viewing {
			list.Form().Close()
			return nil
		}
		return detail.CancelPrompt()
	}
	return apperrors.NewValidation(fmt.Sprintf("unknown command %q, type help", cmd))
}

func (s *shell) vote(ctx context.Context, arg string) error {
	name, id, _ := strings.Cut(arg, " ")
	field, err := entities.ParseVoteField(name)
	if err != nil {
		return apperrors.NewValidation(err.Error())
	}
	id = strings.TrimSpace(id)

	detail := s.session.Detail
	var fact entities.Fact
	if id == "" || valueobjects.ID(id) == detail.FocusedID() {
		fact, err = detail.Vote(ctx, field)
	} else {
		fact, err = s.session.List.Vote(ctx, valueobjects.ID(id), field)
	}
	if err != nil {
		return err
	}
	s.printFact(fact)
	return nil
}

func (s *shell) submit(ctx context.Context) error {
	if st, _ := s.session.Detail.GateState(); st == views.Editing {
		fact, err := s.session.Detail.SubmitEdit(ctx)
		if err != nil {
			return err
		}
		s.printf("saved\n")
		s.printFact(fact)
		return nil
	}
	fact, err := s.session.List.SubmitForm(ctx)
	if err != nil {
		return err
	}
	s.printf("created\n")
	s.printFact(fact)
	return nil
}

// activeForm is the edit form while editing, the create form otherwise.
func (s *shell) activeForm() *views.FactForm {
	if st, _ := s.session.Detail.GateState(); st == views.Editing {
		return s.session.Detail.Form()
	}
	return s.session.List.Form()
}

func (s *shell) printList() {
	list := s.session.List
	store := s.session.Store
	header := fmt.Sprintf("category=%s sort=%s", store.Category(), store.Sort())
	if term := store.SearchTerm(); term != "" {
		header += fmt.Sprintf(" search=%q", term)
	}
	s.printf("%s\n", header)
	if msg := list.Message(); msg != "" {
		s.printf("! %s\n", msg)
	}
	facts := list.Visible()
	if len(facts) == 0 {
		s.printf("  (no facts)\n")
		return
	}
	for _, f := range facts {
		s.printFact(f)
	}
}

func (s *shell) printFact(f entities.Fact) {
	disputed := ""
	if f.IsDisputed() {
		disputed = " [DISPUTED]"
	}
	s.printf("  #%s %s (%s)%s\n", f.ID, f.DisplayTitle(), f.Category, disputed)
	s.printf("      %s\n", f.Text)
	s.printf("      source: %s  interesting %d  mindblowing %d  false %d\n",
		f.Source, f.VotesInteresting, f.VotesMindblowing, f.VotesFalse)
}

func (s *shell) printDetail() {
	detail := s.session.Detail
	fact, ok := detail.Fact()
	if !ok {
		s.printf("fact is not available\n")
		return
	}
	s.printFact(fact)
	if user := fact.ShortUserID(); user != "" {
		s.printf("      by %s at %s\n", user, fact.CreatedAt.Format("2006-01-02 15:04"))
	}
	if msg := detail.Message(); msg != "" {
		s.printf("! %s\n", msg)
	}
	s.printComments(detail.Comments())
}

func (s *shell) printComments(entries []services.CommentEntry) {
	if len(entries) == 0 {
		s.printf("  (no comments)\n")
		return
	}
	for _, e := range entries {
		mark := ""
		if e.Pending() {
			mark = " (sending)"
		}
		s.printf("  - %s: %s%s\n", e.ShortUserID(), e.Content, mark)
	}
}

func (s *shell) printForm(form *views.FactForm) {
	f := form.Fields()
	s.printf("  title:    %s\n  text:     %s (%d left)\n  source:   %s\n  category: %s\n  image:    %s\n",
		f.Title, f.Text, form.Remaining(), f.Source, f.Category, f.ImageURL)
	if f.SecretKey != "" {
		s.printf("  secret:   set\n")
	}
}

func (s *shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}
