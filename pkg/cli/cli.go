package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/scmvm/pkg/config"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	GamePath   string        // ゲームデータのディレクトリ
	ScriptFile string        // スクリプトファイル名（.scmファイル指定時）
	ConfigPath string        // 設定ファイル（TOML）のパス
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	LogLevel   string        // ログレベル（debug, info, warn, error）
	Headless   bool          // ヘッドレスモード
	Ticks      int           // ヘッドレス時に実行する固定ティック数（0は無制限）
	Trace      bool          // 命令トレース
	Seed       uint64        // 乱数シード（0は時刻から生成）
	LoadSlot   string        // 起動時にロードするセーブスロット
	SaveSlot   string        // 終了時に保存するセーブスロット
	Dump       bool          // 終了時にスナップショットをJSONで出力
	Query      string        // 終了時にスナップショットに対して実行するjq式
	ShowHelp   bool          // ヘルプ表示フラグ

	// set はコマンドラインまたは環境変数で明示的に指定された項目
	set map[string]bool
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-headless": true, "--headless": true,
	"-trace": true, "--trace": true,
	"-dump": true, "--dump": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 環境変数 HEADLESS, TIMEOUT, LOG_LEVEL, SCMVM_CONFIG はフラグが指定されていない場合に使用される
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("scmvm", flag.ContinueOnError)

	config := &Config{set: make(map[string]bool)}

	var timeoutSec int
	var seed string
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイルのパス")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイルのパス（短縮形）")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&config.Ticks, "ticks", 0, "ヘッドレス時に実行するティック数")
	fs.BoolVar(&config.Trace, "trace", false, "命令トレース")
	fs.StringVar(&seed, "seed", "", "乱数シード")
	fs.StringVar(&config.LoadSlot, "load", "", "ロードするセーブスロット")
	fs.StringVar(&config.SaveSlot, "save", "", "終了時に保存するセーブスロット")
	fs.BoolVar(&config.Dump, "dump", false, "終了時にスナップショットを出力")
	fs.StringVar(&config.Query, "query", "", "スナップショットに対するjq式")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 短縮形も正式名で記録する
	aliases := map[string]string{"c": "config", "t": "timeout", "l": "log-level", "h": "help"}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		config.set[name] = true
	})

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.set["headless"] {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
			config.set["headless"] = true
		}
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if !config.set["timeout"] {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
				config.set["timeout"] = true
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if !config.set["log-level"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
			config.set["log-level"] = true
		}
	}

	// 環境変数から設定ファイルのパスを取得（コマンドラインフラグが優先）
	if config.ConfigPath == "" {
		config.ConfigPath = os.Getenv("SCMVM_CONFIG")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.Ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative, got %d", config.Ticks)
	}

	if seed != "" {
		s, err := strconv.ParseUint(seed, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", seed, err)
		}
		config.Seed = s
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（ゲームディレクトリまたは.scmファイルのパス）
	if fs.NArg() > 0 {
		path := fs.Arg(0)

		// .scmファイルが指定された場合、ディレクトリとスクリプトファイルに分離
		if strings.HasSuffix(strings.ToLower(path), ".scm") {
			config.GamePath = filepath.Dir(path)
			config.ScriptFile = filepath.Base(path)
		} else {
			config.GamePath = path
		}
	}

	return config, nil
}

// IsSet 項目がコマンドラインまたは環境変数で指定されたかを返す
func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// Apply 明示的に指定された項目で設定ファイルの値を上書きする
// 優先順位: フラグ > 環境変数 > 設定ファイル > デフォルト
func (c *Config) Apply(cfg *config.Config) {
	if c.set["log-level"] {
		cfg.Log.Level = c.LogLevel
	}
	if c.set["headless"] {
		cfg.Engine.Headless = c.Headless
	}
	if c.set["timeout"] {
		cfg.Engine.Timeout = c.Timeout
	}
	if c.set["ticks"] {
		cfg.Engine.Ticks = c.Ticks
	}
	if c.set["trace"] {
		cfg.Machine.Trace = c.Trace
	}
	if c.set["seed"] {
		cfg.Machine.Seed = c.Seed
	}
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -flag=value の形式は次の引数を消費しない
			if strings.Contains(arg, "=") {
				continue
			}

			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合）
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				// ブール型フラグでない場合は次の引数も追加
				if !boolFlags[arg] {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `scmvm - SCM script virtual machine

Usage:
  scmvm [options] <game-path>

Arguments:
  game-path    ゲームディレクトリ、または.scmファイルのパス
               ディレクトリを指定した場合、data/main.scmを大文字小文字を区別せずに検索

Options:
  -c, --config <path>         設定ファイル（TOML）のパス
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし）
  --ticks <n>                 ヘッドレス時にnティック実行して終了
  --trace                     実行した命令をdebugログに出力
  --seed <n>                  乱数シード
  --load <slot>               起動時にセーブスロットからロード
  --save <slot>               終了時にセーブスロットへ保存
  --dump                      終了時にスナップショットをJSONで出力
  --query <expr>              終了時にスナップショットに対してjq式を実行
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  SCMVM_CONFIG=<path>         設定ファイルのパス

Examples:
  scmvm /path/to/game                          data/main.scmを自動検出
  scmvm /path/to/game/data/main.scm            スクリプトを明示的に指定
  scmvm --headless --ticks 600 /path/to/game   600ティック実行して終了
  scmvm --headless --ticks 1 --query '.threads[].name' /path/to/game
  HEADLESS=1 scmvm /path/to/game               環境変数でヘッドレスモード
`)
}
