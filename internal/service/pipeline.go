package service

import (
	"context"
	"log"

	"loyaltyengine/internal/model"

	"gorm.io/gorm"
)

// RuleContext 约束规则的执行上下文，在主事务内顺序流经各规则
// 规则可以改写 NetPoints，后续规则看到的是改写后的值
type RuleContext struct {
	Tx            *gorm.DB
	CorrelationID string
	UserID        int64
	Category      model.Category
	QR            *model.QRCode
	GrossPoints   int64
	NetPoints     int64
	PrimaryScan   bool
}

type RuleFunc func(ctx context.Context, rc *RuleContext) error

// Rule 一条扫码后置约束规则
// Categories 为空表示对所有类别生效；Hard 规则失败会回滚整个扫码事务，
// 软规则失败只记日志
type Rule struct {
	Name       string
	Categories []model.Category
	Hard       bool
	Run        RuleFunc
}

func (r *Rule) appliesTo(category model.Category) bool {
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ConstraintPipeline 按注册顺序执行规则
type ConstraintPipeline struct {
	rules []*Rule
}

func NewConstraintPipeline(rules ...*Rule) *ConstraintPipeline {
	return &ConstraintPipeline{rules: rules}
}

func (p *ConstraintPipeline) Register(rule *Rule) {
	p.rules = append(p.rules, rule)
}

// Run 顺序执行所有匹配规则。规则内 panic 按软失败兜住，
// 避免单条规则把整个扫码链路打穿
//
// 每条规则跑在自己的 savepoint 里：失败（或 panic）时回滚到规则
// 执行前的状态，失败规则的半截写入不会混进主事务提交
func (p *ConstraintPipeline) Run(ctx context.Context, rc *RuleContext) error {
	for _, rule := range p.rules {
		if !rule.appliesTo(rc.Category) {
			continue
		}
		if err := p.runOne(ctx, rule, rc); err != nil {
			if rule.Hard {
				log.Printf("[Pipeline] 硬规则失败，回滚事务: rule=%s, correlationID=%s, err=%v",
					rule.Name, rc.CorrelationID, err)
				return err
			}
			log.Printf("[Pipeline] 软规则失败，继续执行: rule=%s, correlationID=%s, err=%v",
				rule.Name, rc.CorrelationID, err)
		}
	}
	return nil
}

func (p *ConstraintPipeline) runOne(ctx context.Context, rule *Rule, rc *RuleContext) (err error) {
	sp := "sp_" + rule.Name
	if spErr := rc.Tx.SavePoint(sp).Error; spErr != nil {
		return spErr
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Pipeline] 规则 panic: rule=%s, correlationID=%s, panic=%v",
				rule.Name, rc.CorrelationID, r)
			rc.Tx.RollbackTo(sp)
			err = nil
		}
	}()

	if err = rule.Run(ctx, rc); err != nil {
		rc.Tx.RollbackTo(sp)
	}
	return err
}
