package services

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
)

// InterfaceMQTTService 定义MQTT服务接口
type InterfaceMQTTService interface {
	Connect() error
	PublishScanEvent(complexID uint, payload interface{}) error
	Disconnect()
}

// MQTTService 将扫码事件推送到按小区划分的主题，
// 供保安终端与道闸设备订阅。发布是尽力而为的，失败不影响主流程。
type MQTTService struct {
	Config *config.Config
	client mqtt.Client
}

// NewMQTTService 创建一个新的MQTT服务
func NewMQTTService(cfg *config.Config) InterfaceMQTTService {
	return &MQTTService{Config: cfg}
}

// 1 Connect 连接MQTT服务器
func (s *MQTTService) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.Config.MQTTBrokerURL).
		SetClientID(s.Config.MQTTClientID).
		SetUsername(s.Config.MQTTUsername).
		SetPassword(s.Config.MQTTPassword).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("MQTT连接超时: %s", s.Config.MQTTBrokerURL)
	}
	if err := token.Error(); err != nil {
		return err
	}

	s.client = client
	logger.Info("MQTT已连接: %s", s.Config.MQTTBrokerURL)
	return nil
}

// 2 PublishScanEvent 发布扫码事件到小区主题
func (s *MQTTService) PublishScanEvent(complexID uint, payload interface{}) error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("MQTT未连接")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("parkqr/complex/%d/scans", complexID)
	token := s.client.Publish(topic, byte(s.Config.MQTTQoS), false, data)
	if !token.WaitTimeout(3 * time.Second) {
		return fmt.Errorf("MQTT发布超时: %s", topic)
	}
	return token.Error()
}

// 3 Disconnect 断开MQTT连接
func (s *MQTTService) Disconnect() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}
