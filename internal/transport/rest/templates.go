package rest

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

type templates struct {
	page  *template.Template
	board *template.Template
}

// boardView is what both the page and the board fragment render from.
type boardView struct {
	ID     string
	Board  entity.Board
	Status string
	Mode   entity.Mode
	Modes  []entity.Mode
	Active bool
}

func newBoardView(session *entity.Session) boardView {
	return boardView{
		ID:     session.ID,
		Board:  session.Game.Board,
		Status: session.Game.StatusMessage(),
		Mode:   session.Mode,
		Modes:  []entity.Mode{entity.ModeHumanVsHuman, entity.ModeHumanVsSystem},
		Active: session.Game.Active,
	}
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellEvent": cellEventName,
		"rowStart":  func(i int) bool { return i%3 == 0 },
		"rowEnd":    func(i int) bool { return i%3 == 2 },
		"modeLabel": func(m entity.Mode) string {
			switch m {
			case entity.ModeHumanVsSystem:
				return "Human vs System"
			default:
				return "Human vs Human"
			}
		},
	}
}

func loadTemplates() *templates {
	board := template.Must(template.New("board").Funcs(funcs()).Parse(boardTemplate))
	page := template.Must(template.Must(board.Clone()).New("page").Parse(pageTemplate))

	return &templates{page: page, board: board}
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}

	return buf.Bytes(), nil
}

const pageTemplate = `<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<style>
  .row { display: flex; }
  .cell { width: 4rem; height: 4rem; font-size: 2rem; }
</style>
</head><body>
<h1>Tic Tac Toe</h1>
<div hx-ext="sse" sse-connect="/session/{{.ID}}/events">
  {{template "board" .}}
</div>
</body></html>`

const boardTemplate = `<div id="board">
  <select name="mode" hx-post="/session/{{.ID}}/mode" hx-trigger="change" hx-target="#board" hx-swap="outerHTML">
    {{$mode := .Mode}}
    {{range .Modes}}<option value="{{.}}"{{if eq . $mode}} selected{{end}}>{{modeLabel .}}</option>{{end}}
  </select>
  <div id="status" sse-swap="status">{{.Status}}</div>
  {{$id := .ID}}
  <div class="grid">
  {{range $i, $mark := .Board}}
    {{if rowStart $i}}<div class="row">{{end}}
    <button class="cell" name="cell" value="{{$i}}" id="{{cellEvent $i}}" sse-swap="{{cellEvent $i}}"{{if not $.Active}} disabled{{end}}
      hx-post="/session/{{$id}}/move" hx-target="#board" hx-swap="outerHTML">{{$mark}}</button>
    {{if rowEnd $i}}</div>{{end}}
  {{end}}
  </div>
  <button id="restart-button" hx-post="/session/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML">Restart</button>
</div>`
