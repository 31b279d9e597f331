package services

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
)

// InterfaceEmailService 定义邮件服务接口
type InterfaceEmailService interface {
	SendInviteEmail(to, token string) error
	SendScanAlert(to, plate, location string) error
}

// EmailService 通过SMTP发送邮件。
// 未配置SMTP_HOST时降级为日志输出并视为发送成功（开发环境）。
type EmailService struct {
	Config *config.Config
}

// NewEmailService 创建一个新的邮件服务
func NewEmailService(cfg *config.Config) InterfaceEmailService {
	return &EmailService{Config: cfg}
}

// 1 SendInviteEmail 发送邀请邮件，正文包含嵌入令牌的接受链接
func (s *EmailService) SendInviteEmail(to, token string) error {
	link := fmt.Sprintf("%s/invite?token=%s", s.Config.QROrigin, token)
	subject := "停车门禁系统入驻邀请"
	body := fmt.Sprintf("您收到一份入驻邀请，请在24小时内点击以下链接完成注册：\r\n\r\n%s\r\n", link)
	return s.send(to, subject, body)
}

// 2 SendScanAlert 向住户发送扫码提醒邮件
func (s *EmailService) SendScanAlert(to, plate, location string) error {
	subject := "您的车辆被扫码核验"
	body := fmt.Sprintf("车牌 %s 于 %s 被扫码核验。如非本人车辆使用，请联系物业。\r\n", plate, location)
	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	if s.Config.SMTPHost == "" {
		logger.Warning("SMTP未配置，跳过邮件发送: to=%s subject=%s", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.Config.SMTPFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Config.SMTPHost, s.Config.SMTPPort, s.Config.SMTPUsername, s.Config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		logger.Error("邮件发送失败: to=%s err=%v", to, err)
		return err
	}
	return nil
}
