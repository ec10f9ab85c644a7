package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/zurustar/scmvm/pkg/cli"
	"github.com/zurustar/scmvm/pkg/config"
	"github.com/zurustar/scmvm/pkg/engine"
	"github.com/zurustar/scmvm/pkg/fileutil"
	"github.com/zurustar/scmvm/pkg/inspect"
	"github.com/zurustar/scmvm/pkg/logger"
	"github.com/zurustar/scmvm/pkg/savegame"
	"github.com/zurustar/scmvm/pkg/scm"
	"github.com/zurustar/scmvm/pkg/vm"
	"github.com/zurustar/scmvm/pkg/world"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	args       *cli.Config
	config     *config.Config
	log        *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
	scriptPath string

	world   *world.World
	machine *vm.Machine
	session *engine.Session
}

// New Applicationを作成
// スナップショットの出力はstdoutに、ログはstderrに書き出す
func New(stdout, stderr io.Writer) *Application {
	return &Application{
		stdout: stdout,
		stderr: stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.args.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. 設定ファイルの読み込み
	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "config", app.config.Path)

	// 4. スクリプトの読み込み
	file, err := app.loadScript()
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	app.log.Info("Script loaded", "path", app.scriptPath, "size", len(file.Data), "missions", len(file.Missions))

	// 5. 仮想マシンの構築
	if err := app.buildMachine(file); err != nil {
		return fmt.Errorf("failed to build machine: %w", err)
	}

	// 6. セーブデータのロード（指定されている場合）
	if app.args.LoadSlot != "" {
		if err := app.loadSlot(app.args.LoadSlot); err != nil {
			return fmt.Errorf("failed to load slot: %w", err)
		}
	}

	// 7. ゲームループの実行
	runErr := app.runSession()
	if runErr != nil {
		app.log.Error("Session ended with error", "error", runErr, "ticks", app.session.Ticks())
	}

	// 8. 終了処理（エラー終了でも状態は保存・出力する）
	if err := app.finish(); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("failed to run session: %w", runErr)
	}

	app.log.Info("Application terminated normally", "ticks", app.session.Ticks())
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.args = parsed
	return nil
}

// loadConfig 設定ファイルを読み込み、コマンドラインの指定で上書きする
func (app *Application) loadConfig() error {
	var cfg *config.Config
	var err error
	switch {
	case app.args.ConfigPath != "":
		cfg, err = config.Load(app.args.ConfigPath)
	case app.args.GamePath != "":
		cfg, err = config.Find(app.args.GamePath)
	default:
		cfg = config.Default()
	}
	if err != nil {
		return err
	}
	app.args.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.Init(app.config.Log.Level, app.config.Log.Format, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadScript スクリプトファイルを探して読み込む
// ディレクトリが指定された場合は data/main.scm を大文字小文字を区別せずに検索する
func (app *Application) loadScript() (*scm.File, error) {
	if app.args.GamePath == "" {
		return nil, fmt.Errorf("no game path given (see --help)")
	}

	var path string
	var err error
	if app.args.ScriptFile != "" {
		path, err = fileutil.FindFileCaseInsensitive(app.args.GamePath, app.args.ScriptFile)
	} else {
		path, err = fileutil.ResolveCaseInsensitive(app.args.GamePath, "data", "main.scm")
		if err != nil {
			// ゲームのdataディレクトリそのものが指定された場合
			path, err = fileutil.FindFileCaseInsensitive(app.args.GamePath, "main.scm")
		}
	}
	if err != nil {
		return nil, err
	}
	app.scriptPath = path
	return scm.Load(path)
}

// buildMachine ワールドと仮想マシンを構築する
func (app *Application) buildMachine(file *scm.File) error {
	app.world = world.New(world.WithLogger(app.log))
	registry := vm.NewRegistry(vm.CoreModule(), app.world.Module())

	mc := app.config.Machine
	opts := []vm.Option{
		vm.WithLogger(app.log),
		vm.WithEnvironment(app.world),
		vm.WithInstructionBudget(mc.InstructionBudget),
		vm.WithYieldResume(mc.YieldResume),
		vm.WithTrace(mc.Trace),
	}
	if mc.Seed != 0 {
		opts = append(opts, vm.WithSeed(mc.Seed))
	}
	if mc.GlobalsSize > 0 {
		opts = append(opts, vm.WithGlobalsSize(mc.GlobalsSize))
	}

	m, err := vm.New(file, registry, opts...)
	if err != nil {
		return err
	}
	app.machine = m
	app.session = engine.NewSession(m, app.world,
		engine.WithLogger(app.log),
		engine.WithKeepGoing(app.config.Engine.KeepGoing),
	)

	app.log.Info("Machine ready", "opcodes", registry.Len(), "modules", registry.Modules(), "seed", m.Seed())
	return nil
}

// openStore セーブデータのデータベースを開く
func (app *Application) openStore() (*savegame.Store, error) {
	return savegame.Open(app.config.Savegame.Path, savegame.WithLogger(app.log))
}

// loadSlot セーブスロットから状態を復元する
func (app *Application) loadSlot(slot string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(slot)
	if err != nil {
		return err
	}
	if err := app.machine.Restore(snap); err != nil {
		return err
	}
	app.log.Info("Slot loaded", "slot", slot, "threads", len(snap.Threads))
	return nil
}

// runSession ヘッドレスまたはウィンドウでゲームループを実行する
func (app *Application) runSession() error {
	ec := app.config.Engine
	if ec.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return engine.RunHeadless(ctx, app.session, engine.HeadlessOptions{
			Tick:    ec.Tick,
			Ticks:   ec.Ticks,
			Timeout: ec.Timeout,
		})
	}
	return engine.Run(app.session, engine.WindowOptions{
		Width:   ec.Width,
		Height:  ec.Height,
		Title:   fmt.Sprintf("%s - %s", ec.Title, filepath.Base(app.scriptPath)),
		Timeout: ec.Timeout,
	})
}

// finish 終了時の保存・ダンプ・クエリ
func (app *Application) finish() error {
	if app.args.SaveSlot == "" && !app.args.Dump && app.args.Query == "" {
		return nil
	}
	snap := app.machine.Snapshot()

	if app.args.SaveSlot != "" {
		store, err := app.openStore()
		if err != nil {
			return fmt.Errorf("failed to open save store: %w", err)
		}
		err = store.Save(app.args.SaveSlot, filepath.Base(app.scriptPath), snap)
		store.Close()
		if err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
	}

	if app.args.Dump {
		data, err := savegame.RenderJSON(snap)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.stdout, string(data))
	}

	if app.args.Query != "" {
		results, err := inspect.Snapshot(snap, app.args.Query)
		if err != nil {
			return fmt.Errorf("failed to run query: %w", err)
		}
		fmt.Fprint(app.stdout, inspect.Format(results))
	}
	return nil
}
