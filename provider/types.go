// Tencent is pleased to support the open source community by making
// 蓝鲸智云 - 监控平台 (BlueKing - Monitor) available.
// Copyright (C) 2022 THL A29 Limited, a Tencent company. All rights reserved.
// Licensed under the MIT License (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at http://opensource.org/licenses/MIT
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package provider 定义cmdb与元数据的数据提供方接口及数据结构
package provider

import (
	"fmt"
)

// Business cmdb业务
type Business struct {
	BkBizId         int    `json:"bk_biz_id"`
	BkBizName       string `json:"bk_biz_name"`
	BkBizMaintainer string `json:"bk_biz_maintainer"`
	TimeZone        string `json:"time_zone"`
	Language        string `json:"language"`
	LifeCycle       string `json:"life_cycle"`
}

// Host cmdb主机，模块/集群id列表由数据提供方填充
type Host struct {
	BkHostId        int    `json:"bk_host_id"`
	BkBizId         int    `json:"bk_biz_id"`
	BkHostInnerip   string `json:"bk_host_innerip"`
	BkHostInneripV6 string `json:"bk_host_innerip_v6"`
	BkCloudId       int    `json:"bk_cloud_id"`
	BkAgentId       string `json:"bk_agent_id"`
	BkHostName      string `json:"bk_host_name"`
	BkOsType        string `json:"bk_os_type"`
	BkSetIds        []int  `json:"bk_set_ids"`
	BkModuleIds     []int  `json:"bk_module_ids"`
}

// IP 优先返回ipv4，为空时回退ipv6
func (h *Host) IP() string {
	if h.BkHostInnerip != "" {
		return h.BkHostInnerip
	}
	return h.BkHostInneripV6
}

// HostField 主机缓存字段 "{ip}|{cloud_id}"
func (h *Host) HostField() string {
	return fmt.Sprintf("%s|%d", h.IP(), h.BkCloudId)
}

// Module cmdb模块
type Module struct {
	BkModuleId        int    `json:"bk_module_id"`
	BkBizId           int    `json:"bk_biz_id"`
	BkSetId           int    `json:"bk_set_id"`
	BkModuleName      string `json:"bk_module_name"`
	ServiceCategoryId int    `json:"service_category_id"`
	ServiceTemplateId int    `json:"service_template_id"`
}

// Set cmdb集群
type Set struct {
	BkSetId       int    `json:"bk_set_id"`
	BkBizId       int    `json:"bk_biz_id"`
	BkSetName     string `json:"bk_set_name"`
	SetTemplateId int    `json:"set_template_id"`
	BkWorldId     string `json:"bk_world_id"`
}

// ServiceInstance cmdb服务实例
type ServiceInstance struct {
	ServiceInstanceId int    `json:"service_instance_id"`
	BkBizId           int    `json:"bk_biz_id"`
	Name              string `json:"name"`
	BkHostId          int    `json:"bk_host_id"`
	BkModuleId        int    `json:"bk_module_id"`
	ServiceTemplateId int    `json:"service_template_id"`
}

// TopoNode 业务拓扑节点
type TopoNode struct {
	BkObjId    string      `json:"bk_obj_id"`
	BkInstId   int         `json:"bk_inst_id"`
	BkInstName string      `json:"bk_inst_name"`
	Children   []*TopoNode `json:"child,omitempty"`
}

// Field 拓扑缓存字段 "{bk_obj_id}|{bk_inst_id}"
func (n *TopoNode) Field() string {
	return fmt.Sprintf("%s|%d", n.BkObjId, n.BkInstId)
}

// ConvertToTopoLink 展开拓扑树，返回模块节点到根节点的链路，key为 "module|<id>"
// 链路顺序为节点自身到根
func (n *TopoNode) ConvertToTopoLink() map[string][]*TopoNode {
	result := make(map[string][]*TopoNode)

	var walk func(node *TopoNode, parents []*TopoNode)
	walk = func(node *TopoNode, parents []*TopoNode) {
		link := make([]*TopoNode, 0, len(parents)+1)
		link = append(link, node)
		link = append(link, parents...)
		if node.BkObjId == "module" {
			result[node.Field()] = link
			return
		}
		for _, child := range node.Children {
			walk(child, link)
		}
	}
	walk(n, nil)
	return result
}

// AllNodes 展开拓扑树的全部节点
func (n *TopoNode) AllNodes() []*TopoNode {
	nodes := []*TopoNode{n}
	for _, child := range n.Children {
		nodes = append(nodes, child.AllNodes()...)
	}
	return nodes
}

// BcsClusterDimension 空间关联集群维度信息
type BcsClusterDimension struct {
	ClusterId   string   `json:"cluster_id" mapstructure:"cluster_id"`
	ClusterType string   `json:"cluster_type" mapstructure:"cluster_type"`
	Namespace   []string `json:"namespace" mapstructure:"namespace"`
}
