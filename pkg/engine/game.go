package engine

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/zurustar/scmvm/pkg/vm"
	"golang.org/x/image/font/basicfont"
)

var (
	backgroundColor = color.RGBA{0x10, 0x18, 0x20, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 停止中のスレッド（灰色）
	idleTextColor = color.RGBA{0x90, 0x90, 0x90, 0xFF}
	// 異常終了したスレッド（赤）
	faultTextColor = color.RGBA{0xFF, 0x40, 0x40, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

const lineHeight = 16

// WindowOptions configures Run.
type WindowOptions struct {
	Width   int
	Height  int
	Title   string
	Timeout time.Duration
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	session   *Session
	opts      WindowOptions
	startTime time.Time
	paused    bool
	err       error
}

// NewGame creates a game that steps s once per frame.
func NewGame(s *Session, opts WindowOptions) *Game {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	return &Game{
		session:   s,
		opts:      opts,
		startTime: time.Now(),
	}
}

// Err returns the error that stopped the session, if any.
func (g *Game) Err() error {
	return g.err
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.opts.Timeout > 0 && time.Since(g.startTime) >= g.opts.Timeout {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if w := g.session.World(); w != nil {
		// デバッグ用: プレイヤーの死亡・逮捕を切り替える
		if inpututil.IsKeyJustPressed(ebiten.KeyW) {
			w.SetPlayerWasted(!w.PlayerWasted())
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyB) {
			w.SetPlayerBusted(!w.PlayerBusted())
		}
	}

	if g.paused || g.err != nil {
		return nil
	}

	dt := time.Second / time.Duration(ebiten.TPS())
	if err := g.session.Step(dt); err != nil {
		// エラー内容を画面に残してスクリプトの実行だけ止める
		g.err = err
		g.session.log.Error("Session stopped", "error", err)
	}
	return nil
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	y := 8.0
	for _, line := range overlayLines(g.session, g.paused, g.err) {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, y)
		op.ColorScale.ScaleWithColor(line.color)
		text.Draw(screen, line.text, defaultFace, op)
		y += lineHeight
		if int(y) > g.opts.Height-lineHeight {
			break
		}
	}
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.Width, g.opts.Height
}

type overlayLine struct {
	text  string
	color color.Color
}

// overlayLines builds the debug overlay: a status line and one line per
// scheduled thread.
func overlayLines(s *Session, paused bool, err error) []overlayLine {
	m := s.Machine()
	status := fmt.Sprintf("tick %d  time %s  threads %d", s.Ticks(), s.Elapsed().Truncate(time.Millisecond), m.ThreadCount())
	if w := s.World(); w != nil {
		status += fmt.Sprintf("  chars %d", w.CharacterCount())
		if w.PlayerWastedOrBusted() {
			status += "  WASTED/BUSTED"
		}
	}
	if paused {
		status += "  [paused]"
	}
	lines := []overlayLine{{text: status, color: textColor}}
	if err != nil {
		lines = append(lines, overlayLine{text: err.Error(), color: faultTextColor})
	}

	for _, id := range m.Threads() {
		t, ok := m.Thread(id)
		if !ok {
			continue
		}
		state := "run"
		var c color.Color = textColor
		switch {
		case t.Faulted():
			state, c = "fault", faultTextColor
		case t.WakeCounter == vm.Suspended:
			state, c = "wait", idleTextColor
		case t.WakeCounter > 0:
			state = fmt.Sprintf("sleep %dms", t.WakeCounter)
		}
		kind := ""
		if t.IsMission {
			kind = " M"
		}
		lines = append(lines, overlayLine{
			text:  fmt.Sprintf("%-16s%s pc=%06x depth=%d %s", t.Name(), kind, t.ProgramCounter, t.StackDepth(), state),
			color: c,
		})
	}
	return lines
}

// Run GUIモードでウィンドウを実行
func Run(s *Session, opts WindowOptions) error {
	game := NewGame(s, opts)

	// ウィンドウ設定
	ebiten.SetWindowSize(game.opts.Width, game.opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// ゲームを実行
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return game.Err()
}
