// Kubernetes clientset 생성 유틸
//
// Discovery 서비스에는 kubernetes.Interface로 주입되므로
// 테스트에서는 fake clientset으로 대체 가능
//
// 설정 로드 순서:
//  1. KUBECONFIG 환경변수 또는 ~/.kube/config (로컬 개발)
//  2. in-cluster 설정 (클러스터 내부 배포)

package client

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

func NewKubeClient() (kubernetes.Interface, error) {
	restConfig, err := buildKubeConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return clientset, nil
}

func buildKubeConfig() (*rest.Config, error) {
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	if kubeconfig != "" {
		if _, err := os.Stat(kubeconfig); err == nil {
			cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
			if err == nil {
				log.Printf("Kubernetes config loaded from kubeconfig (%s)", kubeconfig)
				return cfg, nil
			}
			log.Printf("Failed to load kubeconfig, falling back to in-cluster: %v", err)
		}
	}

	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config (kubeconfig and in-cluster): %w", err)
	}

	log.Printf("Kubernetes config loaded from in-cluster")
	return cfg, nil
}
