package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("content", cel.DynType),
		cel.Variable("session", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Filter 是候选过滤 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 表达式编译一次，之后可以对任意数量的内容求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：content.vote_average >= 7.0 / content.runtime < 120
//   - 类型：content.media_type == "movie"
//   - 包含：28 in content.genre_ids
//   - 逻辑：content.media_type == "tv" && content.popularity > 50.0
//
// 示例：
//   - `content.media_type == "movie" && content.runtime <= 150`
//   - `18 in content.genre_ids || 35 in content.genre_ids`
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter 编译一条过滤表达式；expr 为空时表示全部放行。
func NewFilter(expr string) (*Filter, error) {
	f := &Filter{expr: expr}
	if expr == "" {
		return f, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError(core.ModuleGroup, core.ErrorCodeInvalidInput,
			fmt.Sprintf("filter compile error: %v", issues.Err()))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program: %w", err)
	}
	f.prg = prg
	return f, nil
}

// Matches 对一条内容求值，返回布尔结果。
// 表达式访问不存在的字段会报错；session 可为 nil。
func (f *Filter) Matches(content *core.Content, session *core.GroupSession) (bool, error) {
	if f == nil || f.prg == nil {
		return true, nil
	}
	if content == nil {
		return false, nil
	}

	out, _, err := f.prg.Eval(buildInput(content, session))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(content *core.Content, session *core.GroupSession) map[string]interface{} {
	genreIDs := make([]interface{}, 0, len(content.GenreIDs))
	for _, id := range content.GenreIDs {
		genreIDs = append(genreIDs, id)
	}

	c := map[string]interface{}{
		"id":           content.ID,
		"title":        content.Title,
		"media_type":   string(content.MediaType),
		"genre_ids":    genreIDs,
		"popularity":   content.Popularity,
		"vote_average": content.VoteAverage,
		"runtime":      content.Runtime,
	}

	s := map[string]interface{}{}
	if session != nil {
		s["group_id"] = session.GroupID
		s["member_count"] = len(session.MemberIDs)
		if session.Context != nil {
			s["context"] = session.Context
		}
	}

	return map[string]interface{}{
		"content": c,
		"session": s,
	}
}
