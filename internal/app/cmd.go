package app

import (
	"fmt"
	"io"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションの定期削除ワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認して終了する。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp はサブコマンドの一覧を表示する。
	CommandHelp Command = "help"
)

var commandUsage = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "start the API server (default)"},
	{CommandWorker, "delete expired sessions every CLEANUP_INTERVAL"},
	{CommandMigrate, "apply pending database migrations"},
	{CommandHealthcheck, "probe GET /health on SERVER_PORT"},
	{CommandHelp, "show this message"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	switch args[0] {
	case "-h", "--help":
		return CommandHelp
	}
	for _, u := range commandUsage {
		if string(u.cmd) == args[0] {
			return u.cmd
		}
	}
	return CommandServe
}

// printUsage はサブコマンドの一覧を書き出す。
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: mindfulbite [command]")
	fmt.Fprintln(w)
	for _, u := range commandUsage {
		fmt.Fprintf(w, "  %-12s %s\n", u.cmd, u.desc)
	}
}
